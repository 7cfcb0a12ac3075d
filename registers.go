package compass

import (
	"context"
	"fmt"
)

var _ RegisterBus = &Registers{}

// Registers exposes register level access on top of an address level bus.
// Reads set the register pointer with a one byte write and then read the
// requested number of bytes, which is how most HMC/QMC parts auto-increment.
type Registers struct {
	bus I2CBus
}

func NewRegisters(bus I2CBus) *Registers {
	return &Registers{bus: bus}
}

func (r *Registers) WriteRegister(ctx context.Context, address, reg, value byte) error {
	err := r.bus.WriteToAddr(ctx, address, []byte{reg, value})
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}

func (r *Registers) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := r.ReadBlock(ctx, address, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *Registers) ReadBlock(ctx context.Context, address, start byte, buffer []byte) error {
	if len(buffer) == 0 {
		return fmt.Errorf("could not read register %#x: empty buffer", start)
	}
	err := r.bus.WriteToAddr(ctx, address, []byte{start})
	if err != nil {
		return fmt.Errorf("could not set register pointer to %#x: %w", start, err)
	}
	err = r.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read %d bytes from register %#x: %w", len(buffer), start, err)
	}
	return nil
}

func (r *Registers) Release(ctx context.Context) error {
	return r.bus.Release(ctx)
}
