package i2c

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/compass"
)

var _ compass.RegisterBus = &GobotBus{}

// GobotBus exposes a gobot adaptor (e.g. a NanoPi NEO) as a compass bus.
// Connections are opened on first use and kept per device address.
type GobotBus struct {
	mx          sync.Mutex
	connector   i2c.Connector
	busNr       int
	connections map[byte]i2c.Connection
}

// NewGobotBus uses the given bus number, a negative value selects the adaptor's default bus.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector:   connector,
		busNr:       busNr,
		connections: make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.connections[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %#x on bus %d: %w", address, b.busNr, err)
	}
	b.connections[address] = conn
	return conn, nil
}

func (b *GobotBus) WriteRegister(ctx context.Context, address, reg, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := conn.WriteByteData(reg, value); err != nil {
		return fmt.Errorf("could not write register %#x of %x: %w", reg, address, err)
	}
	return nil
}

func (b *GobotBus) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return 0, err
	}
	val, err := conn.ReadByteData(reg)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x of %x: %w", reg, address, err)
	}
	return val, nil
}

func (b *GobotBus) ReadBlock(ctx context.Context, address, start byte, buffer []byte) error {
	if len(buffer) == 0 {
		return fmt.Errorf("empty read buffer for register %#x", start)
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := conn.ReadBlockData(start, buffer); err != nil {
		return fmt.Errorf("could not read %d registers from %#x of %x: %w", len(buffer), start, address, err)
	}
	return nil
}

// Close closes every connection opened so far and reports the first error.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var first error
	for addr, conn := range b.connections {
		if err := conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %#x: %w", addr, err)
		}
		delete(b.connections, addr)
	}
	return first
}
