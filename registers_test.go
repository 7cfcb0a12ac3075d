package compass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRegisters_WriteRegister(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x1E), []byte{0x01, 0x20}).Return(nil).Once()

	err := NewRegisters(bus).WriteRegister(context.Background(), 0x1E, 0x01, 0x20)
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestRegisters_ReadBlock(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x1E), []byte{0x03}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x1E), mock.Anything).
		Return([]byte{1, 2, 3, 4, 5, 6}, nil).Once()

	buf := make([]byte, 6)
	err := NewRegisters(bus).ReadBlock(context.Background(), 0x1E, 0x03, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf)
	bus.AssertExpectations(t)
}

func TestRegisters_ReadRegister(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x1E), []byte{0x09}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x1E), mock.Anything).Return([]byte{0x01}, nil).Once()

	val, err := NewRegisters(bus).ReadRegister(context.Background(), 0x1E, 0x09)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), val)
}

func TestRegisters_PointerWriteFailure(t *testing.T) {
	bus := new(MockI2CBus)
	busErr := errors.New("nack")
	bus.On("WriteToAddr", mock.Anything, byte(0x1E), []byte{0x03}).Return(busErr).Once()

	err := NewRegisters(bus).ReadBlock(context.Background(), 0x1E, 0x03, make([]byte, 6))
	assert.ErrorIs(t, err, busErr)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisters_EmptyBuffer(t *testing.T) {
	bus := new(MockI2CBus)
	err := NewRegisters(bus).ReadBlock(context.Background(), 0x1E, 0x03, nil)
	assert.Error(t, err)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisters_BusyIsPropagated(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x0D), []byte{0x02, 0x00}).Return(ErrBusBusy).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()

	regs := NewRegisters(bus)
	err := regs.WriteRegister(context.Background(), 0x0D, 0x02, 0x00)
	assert.ErrorIs(t, err, ErrBusBusy)
	assert.NoError(t, regs.Release(context.Background()))
	bus.AssertExpectations(t)
}
