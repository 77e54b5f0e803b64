package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"go-quadcam-tab/camtab"
	"go-quadcam-tab/config"
	"go-quadcam-tab/logging"
	"go-quadcam-tab/telemetry"
)

func captureProvider(cfg config.Config) camtab.CaptureProvider {
	switch cfg.CameraSource {
	case config.SOURCE_WEBCAM:
		return camtab.WebcamProvider(cfg.CameraWidth, cfg.CameraHeight)
	case config.SOURCE_LIBCAMERA:
		return camtab.LibcameraProvider(cfg.CameraWidth, cfg.CameraHeight, cfg.CameraFramerate, cfg.CameraShutter)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.ERRORLogger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscriptions do not survive a broker reconnect; resubscribe restores
	// them once everything below is built.
	var (
		mu          sync.Mutex
		resubscribe func(mqtt.Client)
	)
	client, err := telemetry.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID, func(c mqtt.Client) {
		mu.Lock()
		fn := resubscribe
		mu.Unlock()
		if fn != nil {
			fn(c)
		}
	})
	if err != nil {
		logging.ERRORLogger.Fatal(err)
	}
	defer client.Disconnect(250)

	renderer := camtab.NewMQTTRenderer(client, cfg.MQTTTopicPrefix, cfg.JPEGQuality, cfg.CameraWidth, cfg.CameraHeight)
	store := telemetry.NewStore()

	var telemetryView camtab.Telemetry
	if cfg.TelemetrySource != config.TELEMETRY_NONE {
		telemetryView = store
	}

	panel := camtab.NewPanel(captureProvider(cfg), renderer, telemetryView, camtab.Options{
		CameraIndex: cfg.CameraIndex,
		BorderColor: &cfg.BorderColor,
		Interval:    time.Duration(cfg.RefreshIntervalMs) * time.Millisecond,
		SnapshotDir: cfg.SnapshotDir,
		JPEGQuality: cfg.JPEGQuality,
		Mapper:      cfg.Mapper(),
	})
	defer panel.Close()

	var source *telemetry.MQTTSource
	switch cfg.TelemetrySource {
	case config.TELEMETRY_MQTT:
		source = telemetry.NewMQTTSource(client, cfg.MQTTTopicPrefix, store, telemetry.DefaultLogConfigs())
		source.SetHandler(panel)
	case config.TELEMETRY_SERIAL:
		serialSource, err := telemetry.OpenSerialSource(cfg.SerialPort, telemetry.PortOptions{BaudRate: cfg.SerialBaud}, store)
		if err != nil {
			logging.ERRORLogger.Fatal(err)
		}
		go func() {
			if err := serialSource.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.ERRORLogger.Printf("Serial telemetry stopped: %v", err)
			}
		}()
	}

	subscribe := func(c mqtt.Client) {
		if err := renderer.Start(); err != nil {
			logging.ERRORLogger.Println(err)
		}
		if err := camtab.SubscribeControls(c, cfg.MQTTTopicPrefix, panel); err != nil {
			logging.ERRORLogger.Println(err)
		}
		if source != nil {
			if err := source.Start(); err != nil {
				logging.ERRORLogger.Println(err)
			}
		}
	}
	subscribe(client)
	mu.Lock()
	resubscribe = subscribe
	mu.Unlock()

	if panel.CanCapture() {
		// A failure is already shown on the display; the tab keeps running
		// telemetry only until the next start.
		_ = panel.StartCapture()
	}

	logging.INFOLogger.Printf("Camera tab running, refresh every %d ms", cfg.RefreshIntervalMs)
	if err := panel.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.ERRORLogger.Println(err)
	}
	logging.INFOLogger.Println("Camera tab stopped")
}
