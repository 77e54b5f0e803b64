package telemetry

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	published    []published
	subscribeErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return &fakeToken{err: c.subscribeErr}
	}
	c.handlers[topic] = cb
	return &fakeToken{}
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := payload.([]byte)
	c.published = append(c.published, published{topic: topic, payload: b})
	return &fakeToken{}
}

// deliver invokes the handler subscribed under filter.
func (c *fakeClient) deliver(filter, topic string, payload string) {
	c.mu.Lock()
	cb := c.handlers[filter]
	c.mu.Unlock()
	cb(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
}

type event struct {
	kind string
	a, b string
}

type recordingHandler struct {
	events []event
}

func (h *recordingHandler) Connected(uri string)    { h.events = append(h.events, event{"connected", uri, ""}) }
func (h *recordingHandler) Disconnected(uri string) { h.events = append(h.events, event{"disconnected", uri, ""}) }
func (h *recordingHandler) ParamUpdated(name, value string) {
	h.events = append(h.events, event{"param", name, value})
}
func (h *recordingHandler) LogError(config, msg string) {
	h.events = append(h.events, event{"log_error", config, msg})
}
