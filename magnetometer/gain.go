package magnetometer

import (
	"fmt"
	"math"
)

// GainSetting is a selectable full scale range.
type GainSetting struct {
	// Gauss is the full scale range (±Ga).
	Gauss float64
	// Code is the value of the GN2..GN0 bits of configuration register B.
	Code byte
	// Resolution is the field strength of one count in mG.
	Resolution float64
}

// ConfigB returns the configuration register B value selecting this gain.
func (g GainSetting) ConfigB() byte {
	return g.Code << gainShift
}

func (g GainSetting) String() string {
	return fmt.Sprintf("±%.2f Ga (%.2f mG/LSb)", g.Gauss, g.Resolution)
}

const DefaultGauss = 1.3

var gains = []GainSetting{
	{Gauss: 0.88, Code: 0, Resolution: 0.73},
	{Gauss: 1.3, Code: 1, Resolution: 0.92},
	{Gauss: 1.9, Code: 2, Resolution: 1.22},
	{Gauss: 2.5, Code: 3, Resolution: 1.52},
	{Gauss: 4.0, Code: 4, Resolution: 2.27},
	{Gauss: 4.7, Code: 5, Resolution: 2.56},
	{Gauss: 5.6, Code: 6, Resolution: 3.03},
	{Gauss: 8.1, Code: 7, Resolution: 4.35},
}

// Gains returns the supported gain settings ordered by range.
func Gains() []GainSetting {
	res := make([]GainSetting, len(gains))
	copy(res, gains)
	return res
}

// LookupGain returns the setting for the given range in gauss.
func LookupGain(gauss float64) (GainSetting, error) {
	for _, g := range gains {
		// tolerate values that went through text parsing
		if math.Abs(g.Gauss-gauss) < 1e-9 {
			return g, nil
		}
	}
	return GainSetting{}, fmt.Errorf("%w: %v Ga", ErrInvalidGain, gauss)
}
