// Package i2c provides compass buses backed by host I2C controllers.
package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/compass"
)

var (
	_ compass.I2CBus      = &GenericBus{}
	_ compass.RegisterBus = &GenericBus{}
)

// GenericBus is a periph.io bus. Register access uses a combined transfer
// (write pointer, repeated start, read) instead of two separate transactions.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus initializes the host drivers and opens the named bus. An empty
// name selects the first bus found.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", dev, err)
	}
	return NewBus(bus), nil
}

// NewBus wraps an already opened periph bus.
func NewBus(bus i2c.BusCloser) *GenericBus {
	return &GenericBus{bus: bus}
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, reg, value byte) error {
	err := b.bus.Tx(uint16(address), []byte{reg, value}, nil)
	if err != nil {
		return fmt.Errorf("could not write register %#x of %x: %w", reg, address, err)
	}
	return nil
}

func (b *GenericBus) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := b.ReadBlock(ctx, address, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *GenericBus) ReadBlock(ctx context.Context, address, start byte, buffer []byte) error {
	if len(buffer) == 0 {
		return fmt.Errorf("empty read buffer for register %#x", start)
	}
	err := b.bus.Tx(uint16(address), []byte{start}, buffer)
	if err != nil {
		return fmt.Errorf("could not read %d registers from %#x of %x: %w", len(buffer), start, address, err)
	}
	return nil
}

// SetSpeed changes the bus clock, e.g. 400*physic.KiloHertz for fast mode.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	if err := b.bus.SetSpeed(f); err != nil {
		return fmt.Errorf("could not set bus speed to %s: %w", f, err)
	}
	return nil
}

// Release is a no-op, host controllers do not keep a stuck transfer around.
func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
