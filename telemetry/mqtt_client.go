package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"go-quadcam-tab/logging"
)

const (
	MQTT_KEEP_ALIVE      = 2 * time.Second
	MQTT_PING_TIMEOUT    = 1 * time.Second
	MQTT_CONNECT_TIMEOUT = 10 * time.Second
)

// MQTTClient is the part of mqtt.Client used by the tab.
type MQTTClient interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

var f mqtt.MessageHandler = func(client mqtt.Client, msg mqtt.Message) {
	logging.DEBUGLogger.Printf("Unhandled MQTT message. TOPIC: %s; MSG: %s", msg.Topic(), msg.Payload())
}

// NewMQTTClient connects to broker. An empty clientID gets a random one so
// several tabs can share a broker.
func NewMQTTClient(broker, clientID string, onConnect mqtt.OnConnectHandler) (mqtt.Client, error) {
	mqtt.WARN = logging.WARNINGLogger
	mqtt.ERROR = logging.ERRORLogger
	mqtt.CRITICAL = logging.ERRORLogger

	if clientID == "" {
		clientID = "camtab-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(MQTT_KEEP_ALIVE)
	opts.SetDefaultPublishHandler(f)
	opts.SetPingTimeout(MQTT_PING_TIMEOUT)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.WARNINGLogger.Printf("MQTT connection lost: %v", err)
	})
	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(MQTT_CONNECT_TIMEOUT) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	logging.INFOLogger.Printf("Connected to MQTT broker %s as %s", broker, clientID)
	return c, nil
}

// PublishJSON marshals obj and publishes it with QoS 2 without waiting for
// the broker's acknowledgement.
func PublishJSON(client MQTTClient, topic string, obj interface{}) error {
	msg, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	client.Publish(topic, 2, false, msg)
	return nil
}
