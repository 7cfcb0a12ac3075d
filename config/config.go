// Package config holds the compass CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/compass/magnetometer"
)

// Version is injected at build time.
var Version = "latest"

var ErrInvalid = errors.New("invalid configuration")

const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterGobot   = "gobot"
	AdapterMock    = "mock"
)

type Declination struct {
	Degrees int `yaml:"degrees"`
	Minutes int `yaml:"minutes"`
}

type Config struct {
	Adapter string `yaml:"adapter"`
	// Device is the periph bus name, e.g. "/dev/i2c-1" or "1".
	Device string `yaml:"device"`
	// Bus is the gobot bus number, negative for the adaptor's default.
	Bus         int           `yaml:"bus"`
	Address     uint8         `yaml:"address"`
	Variant     string        `yaml:"variant"`
	Gain        float64       `yaml:"gain"`
	Declination Declination   `yaml:"declination"`
	ConfigA     uint8         `yaml:"config_a"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	Interval    time.Duration `yaml:"interval"`
}

func Default() Config {
	return Config{
		Adapter:     AdapterMCP2221,
		Bus:         -1,
		Variant:     magnetometer.HMC5883LRegisters.Name,
		Gain:        magnetometer.DefaultGauss,
		ConfigA:     magnetometer.DefaultConfigA,
		SettleDelay: magnetometer.DefaultSettleDelay,
		Interval:    time.Second,
	}
}

// Load reads the file at path on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterGobot, AdapterMock:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Adapter)
	}
	if _, ok := magnetometer.RegisterMaps[c.Variant]; !ok {
		return fmt.Errorf("%w: unknown variant %q", ErrInvalid, c.Variant)
	}
	if _, err := magnetometer.LookupGain(c.Gain); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Address > 0x7F {
		return fmt.Errorf("%w: address %#x is not a 7-bit address", ErrInvalid, c.Address)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: negative settle delay", ErrInvalid)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalid)
	}
	return nil
}

// RegisterMap returns the register map selected by Variant.
func (c Config) RegisterMap() magnetometer.RegisterMap {
	return magnetometer.RegisterMaps[c.Variant]
}

// Options converts the configuration to driver options.
func (c Config) Options() []magnetometer.Option {
	opts := []magnetometer.Option{
		magnetometer.WithRegisterMap(c.RegisterMap()),
		magnetometer.WithGain(c.Gain),
		magnetometer.WithDeclination(c.Declination.Degrees, c.Declination.Minutes),
		magnetometer.WithConfigA(c.ConfigA),
		magnetometer.WithSettleDelay(c.SettleDelay),
	}
	if c.Address != 0 {
		opts = append(opts, magnetometer.WithAddress(c.Address))
	}
	return opts
}
