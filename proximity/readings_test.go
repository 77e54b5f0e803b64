package proximity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(values map[string]float64) Lookup {
	return func(channel string) (float64, bool) {
		v, ok := values[channel]
		return v, ok
	}
}

func TestMapper_Initial(t *testing.T) {
	m := NewMapper()
	r := m.Initial()

	assert.Equal(t, "front", r.Proximity[0].Name)
	assert.Equal(t, "left", r.Proximity[1].Name)
	assert.Equal(t, "right", r.Proximity[2].Name)
	for _, p := range r.Proximity {
		assert.False(t, p.Valid)
		assert.Equal(t, DEFAULT_THRESHOLD, p.Threshold)
	}
	assert.False(t, r.Sonar.Valid)
}

func TestMapper_Update(t *testing.T) {
	m := NewMapper()
	r := m.Update(m.Initial(), lookupFrom(map[string]float64{
		"adc.A0": 4095,
		"adc.A1": 2000,
		"adc.A2": 100,
		"adc.A3": 280,
	}))

	assert.True(t, r.Proximity[0].Valid)
	assert.True(t, r.Proximity[0].IsNear)
	assert.InDelta(t, closedForm(4095), r.Proximity[0].DistanceCm, 1e-9)

	assert.False(t, r.Proximity[1].IsNear)
	assert.False(t, r.Proximity[2].IsNear)
	assert.Equal(t, 100, r.Proximity[2].Raw)

	assert.True(t, r.Sonar.Valid)
	assert.InDelta(t, 100.0, r.Sonar.DistanceCm, 1e-9)
}

func TestMapper_MissingChannelKeepsLastKnown(t *testing.T) {
	m := NewMapper()
	first := m.Update(m.Initial(), lookupFrom(map[string]float64{
		"adc.A0": 3000,
		"adc.A1": 1000,
		"adc.A2": 1000,
		"adc.A3": 560,
	}))

	second := m.Update(first, lookupFrom(map[string]float64{
		"adc.A1": 2500,
	}))

	assert.Equal(t, first.Proximity[0], second.Proximity[0])
	assert.Equal(t, first.Proximity[2], second.Proximity[2])
	assert.Equal(t, first.Sonar, second.Sonar)
	assert.Equal(t, 2500, second.Proximity[1].Raw)
	assert.True(t, second.Proximity[1].IsNear)

	// prev is a value, so the first readout is untouched.
	assert.Equal(t, 1000, first.Proximity[1].Raw)
}

func TestMapper_NoTelemetryKeepsDefaults(t *testing.T) {
	m := NewMapper()
	initial := m.Initial()
	assert.Equal(t, initial, m.Update(initial, lookupFrom(nil)))
}

func TestMapper_ClampsOutOfRange(t *testing.T) {
	m := NewMapper()
	r := m.Update(m.Initial(), lookupFrom(map[string]float64{
		"adc.A0": 5000,
		"adc.A1": -20,
		"adc.A3": 9000,
	}))

	assert.Equal(t, ADC_FULL_SCALE, r.Proximity[0].Raw)
	assert.True(t, r.Proximity[0].Clamped)
	assert.Equal(t, 0, r.Proximity[1].Raw)
	assert.True(t, r.Proximity[1].Clamped)
	assert.False(t, r.Proximity[2].Valid)
	assert.Equal(t, ADC_FULL_SCALE, r.Sonar.Raw)
	assert.True(t, r.Sonar.Clamped)
}

func TestMapper_ClampsNonFinite(t *testing.T) {
	m := NewMapper()
	r := m.Update(m.Initial(), lookupFrom(map[string]float64{
		"adc.A0": 1e19,
		"adc.A1": math.Inf(1),
		"adc.A2": math.Inf(-1),
		"adc.A3": 1e19,
	}))

	for _, p := range r.Proximity[:2] {
		assert.Equal(t, ADC_FULL_SCALE, p.Raw, p.Name)
		assert.True(t, p.Valid, p.Name)
		assert.True(t, p.Clamped, p.Name)
		assert.True(t, p.IsNear, p.Name)
	}
	assert.Equal(t, 0, r.Proximity[2].Raw)
	assert.True(t, r.Proximity[2].Clamped)
	assert.False(t, r.Proximity[2].IsNear)
	assert.Equal(t, ADC_FULL_SCALE, r.Sonar.Raw)
	assert.True(t, r.Sonar.Clamped)
	assert.InDelta(t, float64(ADC_FULL_SCALE)/SONAR_DIVISOR, r.Sonar.DistanceCm, 1e-9)
}

func TestMapper_NaNIsDropout(t *testing.T) {
	m := NewMapper()
	prev := m.Update(m.Initial(), lookupFrom(map[string]float64{
		"adc.A0": 3000,
		"adc.A3": 280,
	}))
	next := m.Update(prev, lookupFrom(map[string]float64{
		"adc.A0": math.NaN(),
		"adc.A1": math.NaN(),
		"adc.A3": math.NaN(),
	}))

	assert.Equal(t, prev, next)
	assert.False(t, next.Proximity[1].Valid)
	assert.Equal(t, 280, next.Sonar.Raw)
}

func TestMapper_ThresholdPerSensor(t *testing.T) {
	m := NewMapper()
	m.Sensors[0].Threshold = 100
	r := m.Update(m.Initial(), lookupFrom(map[string]float64{"adc.A0": 150}))
	assert.True(t, r.Proximity[0].IsNear)
	assert.Equal(t, 100, r.Proximity[0].Threshold)
}
