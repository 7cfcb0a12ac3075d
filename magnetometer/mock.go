package magnetometer

import (
	"context"
	"math"
)

// AxesBehaviorFunc defines the function signature for axes behavior.
// It returns the scaled field in mG or an error.
type AxesBehaviorFunc func(ctx context.Context) (ScaledSample, error)

// MockMagnetometer is a mock implementation of a magnetometer that uses a
// behavior function to produce samples without requiring any hardware.
// Heading is derived from the produced samples the same way the HMC5883L
// driver does it, so declination handling can be exercised too.
type MockMagnetometer struct {
	behavior    AxesBehaviorFunc
	declination Declination
	// Ready is returned by IsDataReady.
	Ready bool
}

// NewMockMagnetometer creates a new mock magnetometer with the given behavior function.
//
// Example usage:
//
//	// Field pointing north-east
//	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
//		return FieldSample(92, 92, 0), nil
//	})
func NewMockMagnetometer(behavior AxesBehaviorFunc) *MockMagnetometer {
	return &MockMagnetometer{behavior: behavior, Ready: true}
}

// NewRotatingMagnetometer returns a mock whose field turns by step radians on
// every read, starting at north.
func NewRotatingMagnetometer(step float64) *MockMagnetometer {
	angle := 0.0
	return NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		s := FieldSample(round(200*math.Cos(angle), scaledPrecision), round(200*math.Sin(angle), scaledPrecision), -120)
		angle += step
		return s, nil
	})
}

// FieldSample builds a sample with all three axes valid.
func FieldSample(x, y, z float64) ScaledSample {
	return ScaledSample{
		X: Reading{Value: x, Valid: true},
		Y: Reading{Value: y, Valid: true},
		Z: Reading{Value: z, Valid: true},
	}
}

func (m *MockMagnetometer) SetDeclination(degrees, minutes int) {
	m.declination = NewDeclination(degrees, minutes)
}

func (m *MockMagnetometer) Declination() Declination {
	return m.declination
}

// ReadScaledAxes returns the sample by calling the behavior function.
func (m *MockMagnetometer) ReadScaledAxes(ctx context.Context) (ScaledSample, error) {
	return m.behavior(ctx)
}

// ReadHeading computes the heading from the sample returned by the behavior function.
func (m *MockMagnetometer) ReadHeading(ctx context.Context) (Heading, error) {
	s, err := m.behavior(ctx)
	if err != nil {
		return 0, err
	}
	return headingFrom(s, m.declination)
}

func (m *MockMagnetometer) IsDataReady(ctx context.Context) (bool, error) {
	return m.Ready, nil
}
