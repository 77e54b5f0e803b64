package camtab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"go-quadcam-tab/logging"
	"go-quadcam-tab/telemetry"
)

// SubscribeControls binds the display's buttons to p:
//
//	<prefix>/control/toggle        start/stop button
//	<prefix>/control/snapshot      save a snapshot
//	<prefix>/control/camera_index  camera spinbox, decimal payload
func SubscribeControls(client telemetry.MQTTClient, prefix string, p *Panel) error {
	if prefix == "" {
		prefix = telemetry.DEFAULT_TOPIC_PREFIX
	}
	prefix = strings.TrimSuffix(prefix, "/")

	subscriptions := map[string]mqtt.MessageHandler{
		prefix + "/control/toggle": func(_ mqtt.Client, _ mqtt.Message) {
			if err := p.ToggleCapture(); err != nil {
				logging.WARNINGLogger.Printf("Toggle capture: %v", err)
			}
		},
		prefix + "/control/snapshot": func(_ mqtt.Client, _ mqtt.Message) {
			path, err := p.Snapshot()
			if errors.Is(err, ErrNoFrame) {
				p.renderer.Notice("No frame to save yet")
				return
			}
			if err != nil {
				logging.WARNINGLogger.Printf("Snapshot: %v", err)
				return
			}
			p.renderer.Notice(fmt.Sprintf("Snapshot saved to %s", path))
		},
		prefix + "/control/camera_index": func(_ mqtt.Client, msg mqtt.Message) {
			index, err := strconv.Atoi(strings.TrimSpace(string(msg.Payload())))
			if err == nil {
				err = p.SetCameraIndex(index)
			}
			if err != nil {
				logging.WARNINGLogger.Printf("Ignoring camera index %q: %v", msg.Payload(), err)
				return
			}
			logging.INFOLogger.Printf("Camera index set to %d", index)
		},
	}
	for topic, cb := range subscriptions {
		if token := client.Subscribe(topic, 0, cb); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		logging.DEBUGLogger.Printf("Subscribed to %s", topic)
	}
	return nil
}
