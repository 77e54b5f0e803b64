// Package config reads the tab's settings from environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go-quadcam-tab/framefit"
	"go-quadcam-tab/logging"
	"go-quadcam-tab/proximity"
)

const (
	SOURCE_WEBCAM    = "webcam"
	SOURCE_LIBCAMERA = "libcamera"
	SOURCE_NONE      = "none"

	TELEMETRY_MQTT   = "mqtt"
	TELEMETRY_SERIAL = "serial"
	TELEMETRY_NONE   = "none"
)

// Config holds every tunable of the tab.
type Config struct {
	CameraSource    string
	CameraIndex     int
	CameraWidth     int
	CameraHeight    int
	CameraFramerate int
	CameraShutter   int

	RefreshIntervalMs int
	BorderColor       framefit.Color
	JPEGQuality       int
	SnapshotDir       string

	TelemetrySource string
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	SerialPort      string
	SerialBaud      int

	Sensors      [proximity.N_PROXIMITY_SENSORS]proximity.Sensor
	SonarChannel string
	Curve        proximity.Curve
	Sonar        proximity.Sonar
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		CameraSource:    SOURCE_WEBCAM,
		CameraIndex:     0,
		CameraWidth:     640,
		CameraHeight:    480,
		CameraFramerate: 30,
		CameraShutter:   10000,

		RefreshIntervalMs: 1000 / 24,
		BorderColor:       framefit.White,
		JPEGQuality:       90,

		TelemetrySource: TELEMETRY_MQTT,
		MQTTBroker:      "tcp://127.0.0.1:1883",
		MQTTTopicPrefix: "cf",
		SerialBaud:      115200,

		Sensors:      proximity.DefaultSensors(),
		SonarChannel: "adc.A3",
		Curve:        proximity.DefaultCurve(),
		Sonar:        proximity.DefaultSonar(),
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom overlays the variables returned by getenv on Default.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []string

	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			logging.DEBUGLogger.Printf("Setting %s value provided in %s env variable: %s", name, name, v)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not an integer", name, v))
			return
		}
		logging.DEBUGLogger.Printf("Setting %s value provided in %s env variable: %d", name, name, n)
		*dst = n
	}
	dec := func(name string, dst *float64) {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Sprintf("%s: %q is not a finite number", name, v))
			return
		}
		*dst = f
	}

	str("CAMERA_SOURCE", &cfg.CameraSource)
	num("CAMERA_INDEX", &cfg.CameraIndex)
	num("CAMERA_WIDTH", &cfg.CameraWidth)
	num("CAMERA_HEIGHT", &cfg.CameraHeight)
	num("CAMERA_FRAMERATE", &cfg.CameraFramerate)
	num("CAMERA_SHUTTER", &cfg.CameraShutter)
	num("REFRESH_INTERVAL_MS", &cfg.RefreshIntervalMs)
	num("JPEG_QUALITY", &cfg.JPEGQuality)
	str("SNAPSHOT_DIR", &cfg.SnapshotDir)

	if v := strings.TrimSpace(getenv("BORDER_COLOR")); v != "" {
		c, err := framefit.ParseColor(v)
		if err != nil {
			errs = append(errs, "BORDER_COLOR: "+err.Error())
		} else {
			cfg.BorderColor = c
		}
	}

	str("TELEMETRY_SOURCE", &cfg.TelemetrySource)
	str("MQTT_BROKER", &cfg.MQTTBroker)
	str("MQTT_CLIENT_ID", &cfg.MQTTClientID)
	str("MQTT_TOPIC_PREFIX", &cfg.MQTTTopicPrefix)
	str("SERIAL_PORT", &cfg.SerialPort)
	num("SERIAL_BAUD", &cfg.SerialBaud)

	for i := range cfg.Sensors {
		name := strings.ToUpper(cfg.Sensors[i].Name)
		num("PROX_THRESHOLD_"+name, &cfg.Sensors[i].Threshold)
		str("PROX_CHANNEL_"+name, &cfg.Sensors[i].Channel)
	}
	str("SONAR_CHANNEL", &cfg.SonarChannel)
	dec("SONAR_DIVISOR", &cfg.Sonar.Divisor)
	dec("PROX_CURVE_SCALE", &cfg.Curve.Scale)
	dec("PROX_CURVE_CENTER", &cfg.Curve.Center)
	dec("PROX_CURVE_WIDTH", &cfg.Curve.Width)
	dec("PROX_CURVE_FLOOR", &cfg.Curve.Floor)

	errs = append(errs, cfg.Validate()...)
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate checks value ranges and returns one message per problem.
func (c *Config) Validate() []string {
	var errors []string

	switch c.CameraSource {
	case SOURCE_WEBCAM, SOURCE_LIBCAMERA, SOURCE_NONE:
	default:
		errors = append(errors, "CAMERA_SOURCE must be webcam, libcamera, or none")
	}
	if c.CameraIndex < 0 {
		errors = append(errors, "CAMERA_INDEX must not be negative")
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		errors = append(errors, "CAMERA_WIDTH and CAMERA_HEIGHT must be positive")
	}
	if c.CameraFramerate < 1 || c.CameraFramerate > 120 {
		errors = append(errors, "CAMERA_FRAMERATE must be between 1 and 120")
	}
	if c.RefreshIntervalMs < 1 {
		errors = append(errors, "REFRESH_INTERVAL_MS must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errors = append(errors, "JPEG_QUALITY must be between 1 and 100")
	}

	switch c.TelemetrySource {
	case TELEMETRY_MQTT:
		if c.MQTTBroker == "" {
			errors = append(errors, "MQTT_BROKER is required for mqtt telemetry")
		}
	case TELEMETRY_SERIAL:
		if c.SerialPort == "" {
			errors = append(errors, "SERIAL_PORT is required for serial telemetry")
		}
	case TELEMETRY_NONE:
	default:
		errors = append(errors, "TELEMETRY_SOURCE must be mqtt, serial, or none")
	}

	for _, s := range c.Sensors {
		if s.Threshold < 0 || s.Threshold > proximity.ADC_FULL_SCALE {
			errors = append(errors, fmt.Sprintf("PROX_THRESHOLD_%s must be between 0 and %d", strings.ToUpper(s.Name), proximity.ADC_FULL_SCALE))
		}
	}
	if !(c.Sonar.Divisor > 0) || math.IsInf(c.Sonar.Divisor, 0) {
		errors = append(errors, "SONAR_DIVISOR must be positive")
	}
	if !(c.Curve.Width > 0) || math.IsInf(c.Curve.Width, 0) {
		errors = append(errors, "PROX_CURVE_WIDTH must be positive")
	}

	return errors
}

// Mapper builds the proximity mapper for the configured sensors.
func (c *Config) Mapper() *proximity.Mapper {
	return &proximity.Mapper{
		Sensors:      c.Sensors,
		SonarChannel: c.SonarChannel,
		Curve:        c.Curve,
		Sonar:        c.Sonar,
	}
}
