package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.yaml")
	err := os.WriteFile(path, []byte(`
adapter: generic
device: /dev/i2c-1
variant: legacy
gain: 4.7
declination:
  degrees: -2
  minutes: 5
settle_delay: 10ms
interval: 250ms
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Adapter:     AdapterGeneric,
		Device:      "/dev/i2c-1",
		Bus:         -1,
		Variant:     "legacy",
		Gain:        4.7,
		Declination: Declination{Degrees: -2, Minutes: 5},
		ConfigA:     0x70,
		SettleDelay: 10 * time.Millisecond,
		Interval:    250 * time.Millisecond,
	}, cfg)
	assert.Equal(t, byte(0x0D), cfg.RegisterMap().DefaultAddress)
	assert.Len(t, cfg.Options(), 5)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gain: [1"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gain: 9.99"), 0o600))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"adapter", func(c *Config) { c.Adapter = "ftdi" }},
		{"variant", func(c *Config) { c.Variant = "hmc6352" }},
		{"gain", func(c *Config) { c.Gain = 1.0 }},
		{"address", func(c *Config) { c.Address = 0x80 }},
		{"settle delay", func(c *Config) { c.SettleDelay = -time.Second }},
		{"interval", func(c *Config) { c.Interval = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestOptions_Address(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.Options(), 5)
	cfg.Address = 0x1E
	assert.Len(t, cfg.Options(), 6)
}
