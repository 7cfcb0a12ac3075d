package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/compass"
	"github.com/mklimuk/compass/adapter"
	"github.com/mklimuk/compass/config"
	"github.com/mklimuk/compass/i2c"
	"github.com/mklimuk/compass/magnetometer"
)

// busyRetries is the number of attempts for writes over the MCP2221, whose I2C
// engine reports busy until a stuck transfer is released.
const busyRetries = 3

var deviceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: mcp2221, generic, gobot or mock",
		Value:   config.AdapterMCP2221,
	},
	&cli.StringFlag{
		Name:  "device",
		Usage: "periph bus name for the generic adapter (empty selects the first bus)",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "bus number for the gobot adapter (negative selects the default)",
		Value: -1,
	},
	&cli.UintFlag{
		Name:  "address",
		Usage: "device address (0 uses the variant's default)",
	},
	&cli.StringFlag{
		Name:  "variant",
		Usage: "register map: hmc5883l, legacy or qmc5883l",
		Value: magnetometer.HMC5883LRegisters.Name,
	},
	&cli.Float64Flag{
		Name:  "gain",
		Usage: "full scale range in gauss",
		Value: magnetometer.DefaultGauss,
	},
	&cli.IntFlag{
		Name:  "declination-degrees",
		Usage: "magnetic declination degrees (negative for west)",
	},
	&cli.IntFlag{
		Name:  "declination-minutes",
		Usage: "magnetic declination minutes",
	},
	&cli.DurationFlag{
		Name:  "settle",
		Usage: "wait after every configuration write",
		Value: magnetometer.DefaultSettleDelay,
	},
}

// loadConfig reads the configuration file and applies explicitly set flags on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		cfg.Address = uint8(c.Uint("address"))
		if c.Uint("address") > 0x7F {
			return cfg, fmt.Errorf("%w: address %#x is not a 7-bit address", config.ErrInvalid, c.Uint("address"))
		}
	}
	if c.IsSet("variant") {
		cfg.Variant = c.String("variant")
	}
	if c.IsSet("gain") {
		cfg.Gain = c.Float64("gain")
	}
	if c.IsSet("declination-degrees") {
		cfg.Declination.Degrees = c.Int("declination-degrees")
	}
	if c.IsSet("declination-minutes") {
		cfg.Declination.Minutes = c.Int("declination-minutes")
	}
	if c.IsSet("settle") {
		cfg.SettleDelay = c.Duration("settle")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	return cfg, cfg.Validate()
}

// session is an opened compass together with whatever has to be closed after use.
type session struct {
	compass magnetometer.Magnetometer
	// driver is nil for the mock adapter
	driver   *magnetometer.HMC5883L
	closers  []func() error
	interval time.Duration
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func openCompass(ctx context.Context, cfg config.Config) (*session, error) {
	s := &session{interval: cfg.Interval}
	var bus compass.RegisterBus
	opts := cfg.Options()
	switch cfg.Adapter {
	case config.AdapterMock:
		m := magnetometer.NewRotatingMagnetometer(math.Pi / 18)
		m.SetDeclination(cfg.Declination.Degrees, cfg.Declination.Minutes)
		s.compass = m
		return s, nil
	case config.AdapterMCP2221:
		a := adapter.NewMCP2221()
		if err := a.Init(ctx); err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		bus = compass.NewRegisters(a)
		opts = append(opts, magnetometer.WithRetryLimit(busyRetries))
	case config.AdapterGeneric:
		b, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, b.Close)
		bus = b
	case config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		s.closers = append(s.closers, npi.I2cBusAdaptor.Finalize)
		b := i2c.NewGobotBus(npi, cfg.Bus)
		s.closers = append(s.closers, b.Close)
		bus = b
	default:
		return nil, fmt.Errorf("%w: unknown adapter %q", config.ErrInvalid, cfg.Adapter)
	}
	opts = append(opts, magnetometer.WithLogger(slog.Default()))
	dev, err := magnetometer.New(ctx, bus, opts...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not initialize compass: %w", err)
	}
	s.driver = dev
	s.compass = dev
	return s, nil
}
