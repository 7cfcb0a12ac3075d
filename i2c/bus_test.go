package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/compass/magnetometer"
)

func TestGenericBus_Registers(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1E, W: []byte{0x01, 0x20}},
			{Addr: 0x1E, W: []byte{0x09}, R: []byte{0x01}},
			{Addr: 0x1E, W: []byte{0x0A}, R: []byte("H43")},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	require.NoError(t, bus.WriteRegister(ctx, 0x1E, 0x01, 0x20))

	status, err := bus.ReadRegister(ctx, 0x1E, 0x09)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), status)

	id := make([]byte, 3)
	require.NoError(t, bus.ReadBlock(ctx, 0x1E, 0x0A, id))
	assert.Equal(t, "H43", string(id))

	assert.NoError(t, bus.Close())
}

func TestGenericBus_RawTransfers(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x0D, W: []byte{0x00}},
			{Addr: 0x0D, R: []byte{0x01, 0x02}},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x0D, []byte{0x00}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x0D, buf))
	assert.Equal(t, []byte{0x01, 0x02}, buf)
	assert.NoError(t, bus.Release(ctx))
	assert.NoError(t, bus.Close())
}

func TestGenericBus_Errors(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x1E, W: []byte{0x02, 0x00}}},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	assert.Error(t, bus.ReadBlock(ctx, 0x1E, 0x03, nil), "empty buffer")
	assert.Error(t, bus.WriteRegister(ctx, 0x2C, 0x02, 0x00), "wrong address")
	assert.Error(t, bus.Close(), "pending transfer")
	assert.NoError(t, bus.SetSpeed(400*physic.KiloHertz))
}

func TestGenericBus_Magnetometer(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1E, W: []byte{0x00, 0x70}},
			{Addr: 0x1E, W: []byte{0x01, 0x20}},
			{Addr: 0x1E, W: []byte{0x02, 0x00}},
			// X, Z, Y
			{Addr: 0x1E, W: []byte{0x03}, R: []byte{0x00, 0x64, 0x00, 0x00, 0x00, 0x64}},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	dev, err := magnetometer.New(ctx, bus, magnetometer.WithSettleDelay(0))
	require.NoError(t, err)
	h, err := dev.ReadHeading(ctx)
	require.NoError(t, err)
	assert.Equal(t, "45° 0'", h.String())
	assert.NoError(t, bus.Close())
}
