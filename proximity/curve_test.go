package proximity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedForm(raw int) float64 {
	return 5.0*math.Exp(-(float64(raw)/4095.0-0.41)/0.11) + 10.0
}

func TestMapProximity_Endpoints(t *testing.T) {
	d, near, err := MapProximity(0, 2000)
	require.NoError(t, err)
	assert.InDelta(t, closedForm(0), d, 1e-9)
	assert.InDelta(t, 217.828, d, 1e-3)
	assert.False(t, near)

	d, near, err = MapProximity(4095, 2000)
	require.NoError(t, err)
	assert.InDelta(t, closedForm(4095), d, 1e-9)
	assert.InDelta(t, 10.0234, d, 1e-4)
	assert.True(t, near)
}

func TestMapProximity_MonotonicallyDecreasing(t *testing.T) {
	prev, _, err := MapProximity(0, 0)
	require.NoError(t, err)
	for raw := 1; raw <= ADC_FULL_SCALE; raw++ {
		d, _, err := MapProximity(raw, 0)
		require.NoError(t, err)
		require.Less(t, d, prev, "raw %d", raw)
		prev = d
	}
}

func TestMapProximity_NearThreshold(t *testing.T) {
	tests := []struct {
		name      string
		raw       int
		threshold int
		want      bool
	}{
		{"below", 1999, 2000, false},
		{"equal", 2000, 2000, false},
		{"above", 2001, 2000, true},
		{"zero threshold", 1, 0, true},
		{"full scale threshold", 4095, 4095, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, near, err := MapProximity(tt.raw, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, near)
		})
	}
}

func TestMapProximity_OutOfRange(t *testing.T) {
	for _, raw := range []int{-1, 4096, 100000} {
		_, near, err := MapProximity(raw, 0)
		assert.True(t, errors.Is(err, ErrOutOfRange), "raw %d", raw)
		assert.False(t, near)
	}
}

func TestMapSonar(t *testing.T) {
	d, err := MapSonar(2800)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, d, 1e-9)

	d, err = MapSonar(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)

	_, err = MapSonar(-5)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestCurve_Configurable(t *testing.T) {
	c := Curve{FullScale: 1023, Scale: 2, Center: 0.5, Width: 0.2, Floor: 4}
	d, err := c.Distance(1023)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Exp(-2.5)+4, d, 1e-12)

	_, err = c.Distance(1024)
	assert.Error(t, err)
	assert.Equal(t, 1023, c.Clamp(5000))
	assert.Equal(t, 0, c.Clamp(-3))
	assert.Equal(t, 17, c.Clamp(17))
}

func TestSonar_Configurable(t *testing.T) {
	s := Sonar{FullScale: 4095, Divisor: 4}
	d, err := s.Distance(400)
	require.NoError(t, err)
	assert.Equal(t, 100.0, d)
}
