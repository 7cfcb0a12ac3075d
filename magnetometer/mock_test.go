package magnetometer

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMockMagnetometer_StaticValue(t *testing.T) {
	// Field pointing north-east
	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		return FieldSample(92, 92, 0), nil
	})

	ctx := context.Background()
	s, err := sensor.ReadScaledAxes(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.String() != "X: 92 Y: 92 Z: 0" {
		t.Errorf("unexpected sample: %s", s)
	}

	h, err := sensor.ReadHeading(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.String() != "45° 0'" {
		t.Errorf("expected 45° 0', got %s", h)
	}
}

func TestMockMagnetometer_Declination(t *testing.T) {
	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		return FieldSample(92, 0, 0), nil
	})
	sensor.SetDeclination(-2, 30)

	if sensor.Declination().String() != "-2° 30'" {
		t.Errorf("unexpected declination: %s", sensor.Declination())
	}
	h, err := sensor.ReadHeading(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.String() != "357° 30'" {
		t.Errorf("expected 357° 30', got %s", h)
	}
}

func TestMockMagnetometer_Overflow(t *testing.T) {
	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		s := FieldSample(0, 92, 0)
		s.X = Reading{}
		return s, nil
	})

	_, err := sensor.ReadHeading(context.Background())
	if !errors.Is(err, ErrNoReading) {
		t.Errorf("expected ErrNoReading, got %v", err)
	}
}

func TestMockMagnetometer_ErrorHandling(t *testing.T) {
	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		return ScaledSample{}, ErrBus
	})

	ctx := context.Background()
	if _, err := sensor.ReadScaledAxes(ctx); !errors.Is(err, ErrBus) {
		t.Errorf("expected ErrBus, got %v", err)
	}
	if _, err := sensor.ReadHeading(ctx); !errors.Is(err, ErrBus) {
		t.Errorf("expected ErrBus, got %v", err)
	}
}

func TestMockMagnetometer_ContextUsage(t *testing.T) {
	var receivedCtx context.Context

	sensor := NewMockMagnetometer(func(ctx context.Context) (ScaledSample, error) {
		receivedCtx = ctx
		return FieldSample(1, 1, 1), nil
	})

	type ctxKey string
	ctx := context.WithValue(context.Background(), ctxKey("test"), "value")
	_, _ = sensor.ReadScaledAxes(ctx)

	if receivedCtx == nil {
		t.Fatal("context was not passed to behavior function")
	}
	if receivedCtx.Value(ctxKey("test")) != "value" {
		t.Error("context value was not preserved")
	}
}

func TestMockMagnetometer_DataReady(t *testing.T) {
	sensor := NewRotatingMagnetometer(0.1)
	ready, err := sensor.IsDataReady(context.Background())
	if err != nil || !ready {
		t.Fatalf("expected ready, got %v %v", ready, err)
	}
	sensor.Ready = false
	ready, _ = sensor.IsDataReady(context.Background())
	if ready {
		t.Error("expected not ready")
	}
}

func TestRotatingMagnetometer(t *testing.T) {
	sensor := NewRotatingMagnetometer(math.Pi / 2)
	ctx := context.Background()

	expected := []string{"0° 0'", "90° 0'", "180° 0'", "270° 0'", "0° 0'"}
	for i, e := range expected {
		h, err := sensor.ReadHeading(ctx)
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if h.String() != e {
			t.Errorf("read %d: expected %s, got %s", i, e, h)
		}
	}
}
