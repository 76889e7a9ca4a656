package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/bmp388"
	"github.com/mklimuk/bmp388/cmd/bmp388/console"
)

var probeCmd = cli.Command{
	Name:  "probe",
	Usage: "check the device answers with the expected chip identity",
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
		sensor := bmp388.New(bus, nil, bmp388.WithSettleDelay(0))
		defer sensor.Close(ctx)
		if err := sensor.Init(ctx); err != nil {
			return console.Exit(1, "probe failed: %s", console.Red(err))
		}
		console.Printf("%s BMP388 found at %s on %s\n", console.PictoPin,
			console.Green(fmt.Sprintf("%#x", cfg.Address)), console.Green(cfg.Bus))
		return nil
	},
}
