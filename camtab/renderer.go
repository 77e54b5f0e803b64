package camtab

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gocv.io/x/gocv"

	"go-quadcam-tab/logging"
	"go-quadcam-tab/telemetry"
)

// Display fields updated by the panel.
const (
	FIELD_BUTTON = "button_startstop"
	FIELD_ROLL   = "roll"
	FIELD_PITCH  = "pitch"
	FIELD_YAW    = "yaw"
	FIELD_SONAR  = "sonar"

	FIELD_PROXIMITY_PREFIX = "prox_"
)

var (
	COLOR_NEAR    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	COLOR_CLEAR   = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	COLOR_UNKNOWN = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Renderer is the display the panel draws on.
type Renderer interface {
	// DisplaySize returns the current video area in pixels.
	DisplaySize() (width, height int)
	SetFrame(frame gocv.Mat) error
	SetText(field, text string)
	SetColor(field string, c color.RGBA)
	// Notice shows a non-blocking message to the user.
	Notice(msg string)
}

type TextMessage struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type ColorMessage struct {
	Field string `json:"field"`
	Color string `json:"color"`
}

type NoticeMessage struct {
	Message string `json:"message"`
}

type DisplaySizeMessage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MQTTRenderer drives a remote display over MQTT:
//
//	<prefix>/render/frame   JPEG, base64
//	<prefix>/render/text    TextMessage
//	<prefix>/render/color   ColorMessage
//	<prefix>/render/notice  NoticeMessage
//
// The display reports its video area on <prefix>/display/size.
type MQTTRenderer struct {
	client  telemetry.MQTTClient
	prefix  string
	quality int

	mu     sync.RWMutex
	width  int
	height int
}

// NewMQTTRenderer assumes a width x height display until the remote side
// reports its size.
func NewMQTTRenderer(client telemetry.MQTTClient, prefix string, quality, width, height int) *MQTTRenderer {
	if prefix == "" {
		prefix = telemetry.DEFAULT_TOPIC_PREFIX
	}
	return &MQTTRenderer{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		quality: quality,
		width:   width,
		height:  height,
	}
}

func (r *MQTTRenderer) topic(name string) string {
	return r.prefix + "/" + name
}

// Start subscribes to display size reports.
func (r *MQTTRenderer) Start() error {
	topic := r.topic("display/size")
	if token := r.client.Subscribe(topic, 0, r.onDisplaySize); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

func (r *MQTTRenderer) onDisplaySize(_ mqtt.Client, msg mqtt.Message) {
	var m DisplaySizeMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		logging.WARNINGLogger.Printf("Malformed display size message: %v", err)
		return
	}
	r.mu.Lock()
	r.width, r.height = m.Width, m.Height
	r.mu.Unlock()
	logging.DEBUGLogger.Printf("Display area is now %dx%d", m.Width, m.Height)
}

func (r *MQTTRenderer) DisplaySize() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.width, r.height
}

// SetFrame publishes frame as a base64 JPEG.
func (r *MQTTRenderer) SetFrame(frame gocv.Mat) error {
	imgBuf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, r.quality})
	if err != nil {
		return err
	}
	defer imgBuf.Close()
	imgBytes := imgBuf.GetBytes()
	var b64bytes []byte = make([]byte, base64.StdEncoding.EncodedLen(len(imgBytes)))
	base64.StdEncoding.Encode(b64bytes, imgBytes)
	r.client.Publish(r.topic("render/frame"), 0, false, b64bytes)
	return nil
}

func (r *MQTTRenderer) SetText(field, text string) {
	r.publish("render/text", TextMessage{Field: field, Text: text})
}

func (r *MQTTRenderer) SetColor(field string, c color.RGBA) {
	r.publish("render/color", ColorMessage{Field: field, Color: fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)})
}

func (r *MQTTRenderer) Notice(msg string) {
	r.publish("render/notice", NoticeMessage{Message: msg})
}

func (r *MQTTRenderer) publish(name string, obj interface{}) {
	if err := telemetry.PublishJSON(r.client, r.topic(name), obj); err != nil {
		logging.WARNINGLogger.Printf("Publishing %s failed: %v", name, err)
	}
}
