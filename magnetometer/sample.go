package magnetometer

import (
	"fmt"
	"math"
	"strconv"
)

// OverflowSentinel is the raw value reported when the ADC saturated or the
// measurement is invalid (0xF000 on the 12 bit HMC5883L converter).
const OverflowSentinel int16 = -4096

// scaledPrecision is the number of decimal places kept in scaled readings.
const scaledPrecision = 4

// RawSample holds signed counts as read from the data output registers.
type RawSample struct {
	X, Y, Z int16
}

// Reading is a scaled axis value. Valid is false when the raw value was the
// overflow sentinel; Value is zero in that case and must not be used.
type Reading struct {
	Value float64
	Valid bool
}

func (r Reading) String() string {
	if !r.Valid {
		return "none"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// ScaledSample holds field strength in mG per axis.
type ScaledSample struct {
	X, Y, Z Reading
}

func (s ScaledSample) String() string {
	return fmt.Sprintf("X: %s Y: %s Z: %s", s.X, s.Y, s.Z)
}

// Scale converts raw counts using the resolution of the given gain.
func (s RawSample) Scale(gain GainSetting) ScaledSample {
	return ScaledSample{
		X: scale(s.X, gain.Resolution),
		Y: scale(s.Y, gain.Resolution),
		Z: scale(s.Z, gain.Resolution),
	}
}

func scale(raw int16, resolution float64) Reading {
	if raw == OverflowSentinel {
		return Reading{}
	}
	return Reading{Value: round(float64(raw)*resolution, scaledPrecision), Valid: true}
}

func round(val float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(val*p) / p
}
