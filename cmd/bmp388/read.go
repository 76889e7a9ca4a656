package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/bmp388"
	"github.com/mklimuk/bmp388/adapter"
	"github.com/mklimuk/bmp388/cmd/bmp388/console"
	"github.com/mklimuk/bmp388/compensate"
	"github.com/mklimuk/bmp388/i2c"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"r"},
	Usage:   "run one averaged acquisition and print the result",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "i2c",
			Usage:   "bus adapter: i2c or mcp2221",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file",
		},
		&cli.IntFlag{
			Name:    "samples",
			Aliases: []string{"n"},
			Usage:   "override the configured sample count",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := bmp388.LoadConfig(c.String("config"))
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		if n := c.Int("samples"); n > 0 {
			cfg.Samples = n
		}
		driver := bmp388.NewDriver(busOpener(c.String("adapter"), cfg), compensate.NewBMP3(),
			bmp388.WithSampleCount(cfg.Samples),
			bmp388.WithPollTimeout(time.Duration(cfg.PollTimeout)),
		)
		reading, err := driver.GetSensorData(context.Background())
		if err != nil {
			return console.Exit(1, "error getting sensor read: %s", console.Red(err))
		}
		console.Printf("%s  %s °C\n%s %s hPa\n",
			console.PictoThermometer, console.White(reading.Temperature),
			console.PictoPressure, console.White(reading.Pressure/100))
		return nil
	},
}

func busOpener(name string, cfg bmp388.Config) bmp388.BusOpener {
	switch name {
	case "mcp2221":
		return adapter.Opener(cfg.Address)
	default:
		return i2c.Opener(cfg.Bus, cfg.Address)
	}
}
