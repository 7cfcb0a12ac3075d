package magnetometer

import (
	"encoding/binary"
	"fmt"
)

// SampleSize is the length of the X/Y/Z data output block.
const SampleSize = 6

// Configuration register A defaults: 8 sample average, 15 Hz output, normal measurement.
const DefaultConfigA byte = 0x70

// gainShift is the position of the gain code in configuration register B (bits 7:5).
const gainShift = 5

// statusReady is the RDY bit of the status register.
const statusReady = 0x01

// Mode is the device measurement mode written to the mode register.
type Mode byte

const (
	ModeContinuous Mode = 0x00
	ModeSingleShot Mode = 0x01
	ModeIdle       Mode = 0x03
)

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeSingleShot:
		return "single-shot"
	case ModeIdle:
		return "idle"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(m))
	}
}

// RegisterWrite is one register/value pair of an initialization sequence.
type RegisterWrite struct {
	Reg   byte
	Value byte
}

// Axis indexes RegisterMap.AxisOffsets.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// RegisterMap describes where a silicon revision keeps its registers and how
// the axis words are laid out in the data output block. Revisions and clones
// disagree on both, so the map is passed to the driver instead of being baked in.
type RegisterMap struct {
	Name           string
	DefaultAddress byte

	ConfigA byte
	ConfigB byte
	Mode    byte
	// Data is the first register of the 6 byte data output block.
	Data byte

	Status    byte
	HasStatus bool

	Identification    byte
	HasIdentification bool

	// AxisOffsets holds the byte offset of the X, Y and Z words within the data block.
	AxisOffsets [3]int
	// ByteOrder decodes each 2 byte axis word.
	ByteOrder binary.ByteOrder

	// InitSequence replaces the ConfigA, ConfigB and Mode writes for parts whose
	// control registers do not follow the HMC5883L layout. Such maps cannot
	// change gain or mode after Init.
	InitSequence []RegisterWrite
	// FixedGain is the sensitivity used for scaling when HasFixedGain is set.
	// The gain table and WithGain do not apply to these parts.
	FixedGain    GainSetting
	HasFixedGain bool
}

// HMC5883LRegisters follows the Honeywell HMC5883L/HMC5983 datasheet.
// Data output is X, Z, Y, MSB first.
var HMC5883LRegisters = RegisterMap{
	Name:              "hmc5883l",
	DefaultAddress:    0x1E,
	ConfigA:           0x00,
	ConfigB:           0x01,
	Mode:              0x02,
	Data:              0x03,
	Status:            0x09,
	HasStatus:         true,
	Identification:    0x0A,
	HasIdentification: true,
	AxisOffsets:       [3]int{0, 4, 2},
	ByteOrder:         binary.BigEndian,
}

// LegacyRegisters matches the clone boards answering on 0x0D where the data
// block is read from register 0x00, status sits at 0x09 and identification at 0x10.
var LegacyRegisters = RegisterMap{
	Name:              "legacy",
	DefaultAddress:    0x0D,
	ConfigA:           0x00,
	ConfigB:           0x01,
	Mode:              0x02,
	Data:              0x00,
	Status:            0x09,
	HasStatus:         true,
	Identification:    0x10,
	HasIdentification: true,
	AxisOffsets:       [3]int{0, 4, 2},
	ByteOrder:         binary.BigEndian,
}

// QMC5883LRegisters covers the QMC5883L sold on "HMC5883L" breakout boards.
// Data output is X, Y, Z, LSB first from 0x00 and DRDY is bit 0 of 0x06.
// Init resets the part (SET/RESET period 0x0B), applies the vendor recommended
// 0x20/0x21 values and writes control register 1 (0x09) with 0x0D: continuous
// mode, 200 Hz, ±2 G, 512 samples oversampling.
var QMC5883LRegisters = RegisterMap{
	Name:           "qmc5883l",
	DefaultAddress: 0x0D,
	Mode:           0x09,
	Data:           0x00,
	Status:         0x06,
	HasStatus:      true,
	AxisOffsets:    [3]int{0, 2, 4},
	ByteOrder:      binary.LittleEndian,
	InitSequence: []RegisterWrite{
		{Reg: 0x0B, Value: 0x01},
		{Reg: 0x20, Value: 0x40},
		{Reg: 0x21, Value: 0x01},
		{Reg: 0x09, Value: 0x0D},
	},
	// 12000 LSB/G on the ±2 G range
	FixedGain:    GainSetting{Gauss: 2, Resolution: 1000.0 / 12000},
	HasFixedGain: true,
}

// RegisterMaps lists the built-in maps by name.
var RegisterMaps = map[string]RegisterMap{
	HMC5883LRegisters.Name: HMC5883LRegisters,
	LegacyRegisters.Name:   LegacyRegisters,
	QMC5883LRegisters.Name: QMC5883LRegisters,
}

// Validate checks that every axis word fits in the data block and that no two axes overlap.
func (m RegisterMap) Validate() error {
	if m.ByteOrder == nil {
		return fmt.Errorf("%w: %q has no byte order", ErrInvalidRegisterMap, m.Name)
	}
	if m.HasFixedGain && m.FixedGain.Resolution <= 0 {
		return fmt.Errorf("%w: %q fixed gain has no resolution", ErrInvalidRegisterMap, m.Name)
	}
	for i, off := range m.AxisOffsets {
		if off < 0 || off > SampleSize-2 {
			return fmt.Errorf("%w: %q axis %d offset %d outside data block", ErrInvalidRegisterMap, m.Name, i, off)
		}
		for j := 0; j < i; j++ {
			other := m.AxisOffsets[j]
			if off-other < 2 && other-off < 2 {
				return fmt.Errorf("%w: %q axes %d and %d overlap", ErrInvalidRegisterMap, m.Name, j, i)
			}
		}
	}
	return nil
}

// Decode turns a data block into a raw sample using the map's layout.
func (m RegisterMap) Decode(data []byte) RawSample {
	return RawSample{
		X: m.word(data, AxisX),
		Y: m.word(data, AxisY),
		Z: m.word(data, AxisZ),
	}
}

// Encode is the inverse of Decode.
func (m RegisterMap) Encode(s RawSample) []byte {
	data := make([]byte, SampleSize)
	m.ByteOrder.PutUint16(data[m.AxisOffsets[AxisX]:], uint16(s.X))
	m.ByteOrder.PutUint16(data[m.AxisOffsets[AxisY]:], uint16(s.Y))
	m.ByteOrder.PutUint16(data[m.AxisOffsets[AxisZ]:], uint16(s.Z))
	return data
}

func (m RegisterMap) word(data []byte, axis Axis) int16 {
	off := m.AxisOffsets[axis]
	return twosComplement(m.ByteOrder.Uint16(data[off : off+2]))
}

// twosComplement reinterprets a 16 bit pattern as a signed value.
func twosComplement(val uint16) int16 {
	if val >= 0x8000 {
		return int16(int32(val) - 0x10000)
	}
	return int16(val)
}
