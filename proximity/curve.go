// Package proximity converts raw ADC readings from the infrared proximity
// sensors and the sonar into centimeters.
package proximity

import (
	"errors"
	"fmt"
	"math"
)

const (
	// 12-bit ADC full scale.
	ADC_FULL_SCALE = 4095

	CURVE_SCALE  = 5.0
	CURVE_CENTER = 0.41
	CURVE_WIDTH  = 0.11
	CURVE_FLOOR  = 10.0

	SONAR_DIVISOR = 2.8
)

var ErrOutOfRange = errors.New("raw value out of range")

// Curve is the exponential calibration fitted for an infrared proximity
// sensor model:
//
//	distanceCm = Scale * exp(-(raw/FullScale - Center) / Width) + Floor
type Curve struct {
	FullScale float64
	Scale     float64
	Center    float64
	Width     float64
	Floor     float64
}

// DefaultCurve returns the fitted calibration of the infrared sensors.
func DefaultCurve() Curve {
	return Curve{
		FullScale: ADC_FULL_SCALE,
		Scale:     CURVE_SCALE,
		Center:    CURVE_CENTER,
		Width:     CURVE_WIDTH,
		Floor:     CURVE_FLOOR,
	}
}

// Distance maps raw onto centimeters. raw must lie in [0, FullScale].
func (c Curve) Distance(raw int) (float64, error) {
	if err := checkRange(raw, c.FullScale); err != nil {
		return 0, err
	}
	normalized := float64(raw) / c.FullScale
	return c.Scale*math.Exp(-(normalized-c.Center)/c.Width) + c.Floor, nil
}

// Clamp forces raw into [0, FullScale].
func (c Curve) Clamp(raw int) int {
	return clamp(raw, c.FullScale)
}

// ClampValue rounds a telemetry value into [0, FullScale]. clamped reports
// whether v lay outside the scale. v must not be NaN.
func (c Curve) ClampValue(v float64) (raw int, clamped bool) {
	return clampValue(v, c.FullScale)
}

// Sonar is the linear calibration of the sonar altimeter.
type Sonar struct {
	FullScale float64
	Divisor   float64
}

func DefaultSonar() Sonar {
	return Sonar{FullScale: ADC_FULL_SCALE, Divisor: SONAR_DIVISOR}
}

// Distance maps raw onto centimeters. raw must lie in [0, FullScale].
func (s Sonar) Distance(raw int) (float64, error) {
	if err := checkRange(raw, s.FullScale); err != nil {
		return 0, err
	}
	return float64(raw) / s.Divisor, nil
}

func (s Sonar) Clamp(raw int) int {
	return clamp(raw, s.FullScale)
}

func (s Sonar) ClampValue(v float64) (raw int, clamped bool) {
	return clampValue(v, s.FullScale)
}

// MapProximity converts raw with the default curve. isNear is true when raw
// is strictly above threshold.
func MapProximity(raw, threshold int) (distanceCm float64, isNear bool, err error) {
	distanceCm, err = DefaultCurve().Distance(raw)
	if err != nil {
		return 0, false, err
	}
	return distanceCm, raw > threshold, nil
}

// MapSonar converts raw with the default sonar divisor.
func MapSonar(raw int) (float64, error) {
	return DefaultSonar().Distance(raw)
}

func checkRange(raw int, fullScale float64) error {
	if raw < 0 || float64(raw) > fullScale {
		return fmt.Errorf("%w: %d not in [0, %.0f]", ErrOutOfRange, raw, fullScale)
	}
	return nil
}

func clamp(raw int, fullScale float64) int {
	if raw < 0 {
		return 0
	}
	if float64(raw) > fullScale {
		return int(fullScale)
	}
	return raw
}

// clampValue clamps in float64 so values beyond the int range saturate at
// the correct end of the scale.
func clampValue(v, fullScale float64) (int, bool) {
	limited := math.Max(0, math.Min(v, fullScale))
	raw := int(math.Round(limited))
	return raw, v < 0 || v > fullScale
}
