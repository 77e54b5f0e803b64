// Package telemetry consumes the quadcopter's log stream and keeps the
// latest value of every channel.
package telemetry

import (
	"errors"
)

var ErrChannelMissing = errors.New("telemetry channel missing")

// Sample is one log packet: a flat mapping of channel name to value.
type Sample struct {
	Timestamp int64
	Config    string
	Values    map[string]float64
}

// LogConfig is a log block the bridge is asked to stream.
type LogConfig struct {
	Name      string   `json:"name"`
	PeriodMs  int      `json:"period_ms"`
	Variables []string `json:"variables"`
}

const LOG_PERIOD_MS = 100

// DefaultLogConfigs returns the attitude and ADC blocks shown by the tab.
func DefaultLogConfigs() []LogConfig {
	return []LogConfig{
		{
			Name:      "Stabilizer",
			PeriodMs:  LOG_PERIOD_MS,
			Variables: []string{"stabilizer.roll", "stabilizer.pitch", "stabilizer.yaw"},
		},
		{
			Name:      "ADC",
			PeriodMs:  LOG_PERIOD_MS,
			Variables: []string{"adc.A0", "adc.A1", "adc.A2", "adc.A3"},
		},
	}
}

// Handler receives link and log layer events from a source.
type Handler interface {
	Connected(uri string)
	Disconnected(uri string)
	ParamUpdated(name, value string)
	LogError(config, msg string)
}
