// Package compass defines the bus abstractions shared by the magnetometer driver
// and the transports it runs on.
package compass

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// AddressableReader reads raw bytes from a device address.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes raw bytes to a device address.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Releaser
}

// Releaser is implemented by buses that can be forced out of a stuck transfer.
type Releaser interface {
	Release(ctx context.Context) error
}

// I2CBus is a byte oriented bus where every transfer targets a device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterReader reads device registers.
type RegisterReader interface {
	// ReadRegister reads a single register, typically a status register.
	ReadRegister(ctx context.Context, address, reg byte) (byte, error)
	// ReadBlock reads len(buffer) sequential registers starting at start.
	ReadBlock(ctx context.Context, address, start byte, buffer []byte) error
}

// RegisterWriter writes device registers.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, address, reg, value byte) error
}

// RegisterBus is the register addressed view of a bus consumed by drivers.
// Implementations do not retry; retries are the driver's call.
type RegisterBus interface {
	RegisterReader
	RegisterWriter
}
