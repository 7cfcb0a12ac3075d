package magnetometer

import (
	"fmt"
	"math"
)

const fullTurn = 2 * math.Pi

// Declination is the angle between magnetic and true north. East is positive.
//
// The value is kept as whole signed minutes so that the degree/minute pair
// always renders with minutes in [0,60) and the sign on the degrees.
type Declination struct {
	minutes int
}

// NewDeclination builds a declination from degrees and minutes. The sign of
// degrees applies to the whole angle, so (-2, 5) is 2°5' west. When degrees is
// zero the sign is taken from minutes. Minutes are counted away from zero in
// the direction of the degrees, so negative minutes move back toward zero:
// (8, -15) is 7° 45' and (-2, -5) is -1° 55'. Minutes outside [0,60) carry
// into degrees: (8, 75) becomes 9° 15'.
func NewDeclination(degrees, minutes int) Declination {
	if degrees < 0 {
		return Declination{minutes: degrees*60 - minutes}
	}
	return Declination{minutes: degrees*60 + minutes}
}

// DegreesMinutes returns the normalized degree/minute pair.
func (d Declination) DegreesMinutes() (int, int) {
	abs := d.minutes
	if abs < 0 {
		abs = -abs
	}
	deg, mins := abs/60, abs%60
	if d.minutes < 0 {
		deg = -deg
	}
	return deg, mins
}

func (d Declination) Radians() float64 {
	return float64(d.minutes) / 60 * math.Pi / 180
}

func (d Declination) String() string {
	deg, mins := d.DegreesMinutes()
	if d.minutes < 0 && deg == 0 {
		return fmt.Sprintf("-0° %d'", mins)
	}
	return fmt.Sprintf("%d° %d'", deg, mins)
}

// Heading is a compass heading in radians, always in [0, 2π).
type Heading float64

// NewHeading normalizes any angle into [0, 2π).
func NewHeading(rad float64) Heading {
	h := math.Mod(math.Mod(rad, fullTurn)+fullTurn, fullTurn)
	return Heading(h)
}

func (h Heading) Radians() float64 {
	return float64(h)
}

func (h Heading) Degrees() float64 {
	return float64(h) * 180 / math.Pi
}

// DegreesMinutes splits the heading into whole degrees and rounded minutes.
// A minute value rounding up to 60 is carried into the degrees and 360° wraps to 0°.
func (h Heading) DegreesMinutes() (int, int) {
	total := h.Degrees()
	deg := math.Floor(total)
	mins := math.Round((total - deg) * 60)
	if mins >= 60 {
		deg++
		mins = 0
	}
	if deg >= 360 {
		deg -= 360
	}
	return int(deg), int(mins)
}

func (h Heading) String() string {
	deg, mins := h.DegreesMinutes()
	return fmt.Sprintf("%d° %d'", deg, mins)
}

// headingFrom computes the declination corrected heading from the X and Y axes.
func headingFrom(s ScaledSample, d Declination) (Heading, error) {
	if !s.X.Valid || !s.Y.Valid {
		return 0, ErrNoReading
	}
	return NewHeading(math.Atan2(s.Y.Value, s.X.Value) + d.Radians()), nil
}
