package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/compass/cmd/compass/console"
	"github.com/mklimuk/compass/config"
	"github.com/mklimuk/compass/magnetometer"
)

var pollFlags = []cli.Flag{
	&cli.DurationFlag{
		Name:    "interval",
		Aliases: []string{"i"},
		Usage:   "time between readings",
		Value:   config.Default().Interval,
	},
	&cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Usage:   "number of readings, 0 reads until interrupted",
	},
	&cli.BoolFlag{
		Name:  "interactive",
		Usage: "wait for confirmation before every reading, 'e' exits",
	},
}

var headingCmd = cli.Command{
	Name:    "heading",
	Aliases: []string{"hd"},
	Usage:   "print the declination corrected heading",
	Flags:   append(append([]cli.Flag{}, deviceFlags...), pollFlags...),
	Action: func(c *cli.Context) error {
		return withCompass(c, func(ctx context.Context, s *session) error {
			return poll(ctx, c.Int("count"), s.interval, c.Bool("interactive"), func(ctx context.Context) error {
				h, err := s.compass.ReadHeading(ctx)
				if errors.Is(err, magnetometer.ErrNoReading) {
					console.Warnf("axis overflow, try a higher gain")
					console.PInfof(console.PictoCompass, "Heading: %s", console.Yellow("none"))
					return nil
				}
				if err != nil {
					return err
				}
				console.PInfof(console.PictoCompass, "Heading: %s", console.White(h))
				return nil
			})
		})
	},
}

var axesCmd = cli.Command{
	Name:    "axes",
	Aliases: []string{"ax"},
	Usage:   "print the scaled magnetic field in mG",
	Flags:   append(append([]cli.Flag{}, deviceFlags...), pollFlags...),
	Action: func(c *cli.Context) error {
		return withCompass(c, func(ctx context.Context, s *session) error {
			return poll(ctx, c.Int("count"), s.interval, c.Bool("interactive"), func(ctx context.Context) error {
				sample, err := s.compass.ReadScaledAxes(ctx)
				if err != nil {
					return err
				}
				console.PInfof(console.PictoMagnet, "X: %s Y: %s Z: %s",
					reading(sample.X), reading(sample.Y), reading(sample.Z))
				return nil
			})
		})
	},
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "print axes, declination and heading",
	Flags: deviceFlags,
	Action: func(c *cli.Context) error {
		return withCompass(c, func(ctx context.Context, s *session) error {
			sample, err := s.compass.ReadScaledAxes(ctx)
			if err != nil {
				return err
			}
			console.Printf("Axis X: %s\n", reading(sample.X))
			console.Printf("Axis Y: %s\n", reading(sample.Y))
			console.Printf("Axis Z: %s\n", reading(sample.Z))
			console.Printf("Declination: %s\n", console.White(s.compass.Declination()))
			h, err := s.compass.ReadHeading(ctx)
			switch {
			case errors.Is(err, magnetometer.ErrNoReading):
				console.Printf("Heading: %s\n", console.Yellow("none"))
			case err != nil:
				return err
			default:
				console.Printf("Heading: %s\n", console.White(h))
			}
			if s.driver != nil {
				console.Printf("Gain: %s\n", console.White(s.driver.Gain()))
				console.Printf("Mode: %s\n", console.White(s.driver.Mode()))
			}
			return nil
		})
	},
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print data ready flag and identification registers",
	Flags: deviceFlags,
	Action: func(c *cli.Context) error {
		return withCompass(c, func(ctx context.Context, s *session) error {
			ready, err := s.compass.IsDataReady(ctx)
			switch {
			case errors.Is(err, magnetometer.ErrUnsupported):
				console.Printf("Data ready: %s\n", console.Yellow("not supported"))
			case err != nil:
				return err
			case ready:
				console.Printf("Data ready: %s\n", console.Green(ready))
			default:
				console.Printf("Data ready: %s\n", console.Yellow(ready))
			}
			if s.driver == nil {
				return nil
			}
			id, err := s.driver.ReadIdentification(ctx)
			switch {
			case errors.Is(err, magnetometer.ErrUnsupported):
				console.Printf("Identification: %s\n", console.Yellow("not supported"))
			case err != nil:
				return err
			default:
				console.Printf("Identification: %s (% x)\n", console.White(string(id[:])), id[:])
			}
			console.Printf("Register map: %s at %#x\n", console.White(s.driver.RegisterMap().Name), s.driver.Address())
			return nil
		})
	},
}

func reading(r magnetometer.Reading) string {
	if !r.Valid {
		return console.Yellow(r)
	}
	return console.White(r)
}

// withCompass opens the configured compass for the duration of fn. SIGINT and
// SIGTERM cancel the context, which ends fn gracefully.
func withCompass(c *cli.Context, fn func(ctx context.Context, s *session) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Exit(1, "configuration error: %s", console.Red(err))
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s, err := openCompass(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return console.Exit(1, "%s", console.Red(err))
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("could not close bus", "error", err)
		}
	}()
	err = fn(ctx, s)
	if err != nil && ctx.Err() == nil {
		return console.Exit(1, "read error: %s", console.Red(err))
	}
	return nil
}

// poll calls read every interval until count readings are done or ctx is
// cancelled. In interactive mode the operator paces the readings instead.
func poll(ctx context.Context, count int, interval time.Duration, interactive bool, read func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; count == 0 || i < count; i++ {
		if err := read(ctx); err != nil {
			return err
		}
		if interactive {
			answer, err := console.Prompt("next reading? (e to exit)", "n", "e")
			if err != nil || answer == "e" {
				return nil
			}
			continue
		}
		if count != 0 && i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
