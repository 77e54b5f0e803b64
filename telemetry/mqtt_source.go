package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"go-quadcam-tab/logging"
)

const DEFAULT_TOPIC_PREFIX = "cf"

type logPacket struct {
	Timestamp int64              `json:"timestamp"`
	Config    string             `json:"config"`
	Data      map[string]float64 `json:"data"`
}

type logErrorMessage struct {
	Config  string `json:"config"`
	Message string `json:"message"`
}

type linkMessage struct {
	Event string `json:"event"`
	URI   string `json:"uri"`
}

// MQTTSource subscribes to the log stream forwarded by a radio bridge:
//
//	<prefix>/log/<config>      log packets
//	<prefix>/log_error         log layer errors
//	<prefix>/link              connected / disconnected events
//	<prefix>/param/<name>      parameter updates
//
// and requests its log blocks on <prefix>/log_config/<name>.
type MQTTSource struct {
	client  MQTTClient
	prefix  string
	store   *Store
	handler Handler
	configs []LogConfig
}

func NewMQTTSource(client MQTTClient, prefix string, store *Store, configs []LogConfig) *MQTTSource {
	if prefix == "" {
		prefix = DEFAULT_TOPIC_PREFIX
	}
	return &MQTTSource{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		store:   store,
		configs: configs,
	}
}

// SetHandler routes link and log layer events to h.
func (s *MQTTSource) SetHandler(h Handler) {
	s.handler = h
}

func (s *MQTTSource) topic(parts ...string) string {
	return s.prefix + "/" + strings.Join(parts, "/")
}

// Start subscribes to the stream topics and publishes the log
// configurations. It is safe to call again after a reconnect.
func (s *MQTTSource) Start() error {
	subscriptions := map[string]mqtt.MessageHandler{
		s.topic("log", "+"):   s.onLogData,
		s.topic("log_error"):  s.onLogError,
		s.topic("link"):       s.onLink,
		s.topic("param", "+"): s.onParam,
	}
	for topic, cb := range subscriptions {
		if token := s.client.Subscribe(topic, 0, cb); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		logging.DEBUGLogger.Printf("Subscribed to %s", topic)
	}
	for _, cfg := range s.configs {
		if err := PublishJSON(s.client, s.topic("log_config", cfg.Name), cfg); err != nil {
			return fmt.Errorf("publish log config %s: %w", cfg.Name, err)
		}
		logging.INFOLogger.Printf("Requested log config [%s] every %d ms: %v", cfg.Name, cfg.PeriodMs, cfg.Variables)
	}
	return nil
}

func (s *MQTTSource) onLogData(_ mqtt.Client, msg mqtt.Message) {
	sample, err := ParseLogPacket(msg.Payload())
	if err != nil {
		logging.WARNINGLogger.Printf("Dropping log packet on %s: %v", msg.Topic(), err)
		return
	}
	if sample.Config == "" {
		sample.Config = lastSegment(msg.Topic())
	}
	logging.DEBUGLogger.Printf("%d:%s:%v", sample.Timestamp, sample.Config, sample.Values)
	s.store.Update(sample)
}

func (s *MQTTSource) onLogError(_ mqtt.Client, msg mqtt.Message) {
	var m logErrorMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		logging.WARNINGLogger.Printf("Malformed log error message: %v", err)
		return
	}
	logging.ERRORLogger.Printf("Log config [%s] error: %s", m.Config, m.Message)
	if s.handler != nil {
		s.handler.LogError(m.Config, m.Message)
	}
}

func (s *MQTTSource) onLink(_ mqtt.Client, msg mqtt.Message) {
	var m linkMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		logging.WARNINGLogger.Printf("Malformed link message: %v", err)
		return
	}
	switch m.Event {
	case "connected":
		if s.handler != nil {
			s.handler.Connected(m.URI)
		}
	case "disconnected":
		s.store.Reset()
		if s.handler != nil {
			s.handler.Disconnected(m.URI)
		}
	default:
		logging.WARNINGLogger.Printf("Unknown link event %q for %s", m.Event, m.URI)
	}
}

func (s *MQTTSource) onParam(_ mqtt.Client, msg mqtt.Message) {
	if s.handler != nil {
		s.handler.ParamUpdated(lastSegment(msg.Topic()), string(msg.Payload()))
	}
}

// ParseLogPacket decodes a JSON log packet.
func ParseLogPacket(payload []byte) (Sample, error) {
	var p logPacket
	if err := json.Unmarshal(payload, &p); err != nil {
		return Sample{}, fmt.Errorf("decode log packet: %w", err)
	}
	if len(p.Data) == 0 {
		return Sample{}, fmt.Errorf("log packet has no data")
	}
	return Sample{Timestamp: p.Timestamp, Config: p.Config, Values: p.Data}, nil
}

func lastSegment(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
