package proximity

import (
	"math"
)

const N_PROXIMITY_SENSORS = 3

const DEFAULT_THRESHOLD = 2000

// Sensor binds a logical proximity sensor to its telemetry channel.
type Sensor struct {
	Name      string
	Channel   string
	Threshold int
}

type ProximityReading struct {
	Name       string
	Raw        int
	Threshold  int
	DistanceCm float64
	IsNear     bool
	// Valid is false until the channel has delivered a sample.
	Valid bool
	// Clamped is set when the raw sample was outside the ADC range.
	Clamped bool
}

type SonarReading struct {
	Raw        int
	DistanceCm float64
	Valid      bool
	Clamped    bool
}

// Readings is the full sensor readout for one tick.
type Readings struct {
	Proximity [N_PROXIMITY_SENSORS]ProximityReading
	Sonar     SonarReading
}

// Lookup returns the latest value of a telemetry channel, or false when the
// channel is absent from the sample.
type Lookup func(channel string) (float64, bool)

// Mapper recomputes Readings from telemetry.
type Mapper struct {
	Sensors      [N_PROXIMITY_SENSORS]Sensor
	SonarChannel string
	Curve        Curve
	Sonar        Sonar
}

// DefaultSensors returns the front/left/right layout on adc.A0..A2.
func DefaultSensors() [N_PROXIMITY_SENSORS]Sensor {
	return [N_PROXIMITY_SENSORS]Sensor{
		{Name: "front", Channel: "adc.A0", Threshold: DEFAULT_THRESHOLD},
		{Name: "left", Channel: "adc.A1", Threshold: DEFAULT_THRESHOLD},
		{Name: "right", Channel: "adc.A2", Threshold: DEFAULT_THRESHOLD},
	}
}

func NewMapper() *Mapper {
	return &Mapper{
		Sensors:      DefaultSensors(),
		SonarChannel: "adc.A3",
		Curve:        DefaultCurve(),
		Sonar:        DefaultSonar(),
	}
}

// Initial returns the readout before any telemetry has arrived.
func (m *Mapper) Initial() Readings {
	var r Readings
	for i, s := range m.Sensors {
		r.Proximity[i] = ProximityReading{Name: s.Name, Threshold: s.Threshold}
	}
	return r
}

// Update returns a new readout computed from lookup. Channels missing from
// the sample, or reported as NaN, keep their reading from prev. Out-of-range
// values, infinities included, are clamped and flagged.
func (m *Mapper) Update(prev Readings, lookup Lookup) Readings {
	next := prev

	for i, s := range m.Sensors {
		v, ok := lookup(s.Channel)
		if !ok || math.IsNaN(v) {
			continue
		}
		raw, clamped := m.Curve.ClampValue(v)
		d, _ := m.Curve.Distance(raw)
		next.Proximity[i] = ProximityReading{
			Name:       s.Name,
			Raw:        raw,
			Threshold:  s.Threshold,
			DistanceCm: d,
			IsNear:     raw > s.Threshold,
			Valid:      true,
			Clamped:    clamped,
		}
	}

	if v, ok := lookup(m.SonarChannel); ok && !math.IsNaN(v) {
		raw, clamped := m.Sonar.ClampValue(v)
		d, _ := m.Sonar.Distance(raw)
		next.Sonar = SonarReading{
			Raw:        raw,
			DistanceCm: d,
			Valid:      true,
			Clamped:    clamped,
		}
	}

	return next
}
