package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/bmp388"
	"github.com/mklimuk/bmp388/cmd/bmp388/console"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "issue a soft reset and wait out the settling time",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "i2c",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
		},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		cfg, err := bmp388.LoadConfig(c.String("config"))
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		bus, err := busOpener(c.String("adapter"), cfg)(ctx)
		if err != nil {
			return console.Exit(1, "bus open error: %s", console.Red(err))
		}
		sensor := bmp388.New(bus, nil)
		defer sensor.Close(ctx)
		if err := sensor.Reset(ctx); err != nil {
			return console.Exit(1, "reset failed: %s", console.Red(err))
		}
		console.Print("device reset")
		return nil
	},
}
