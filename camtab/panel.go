// Package camtab drives the camera tab: it owns the capture device, fits each
// frame to the display, overlays the proximity and attitude readouts and
// saves snapshots.
package camtab

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"go-quadcam-tab/framefit"
	"go-quadcam-tab/logging"
	"go-quadcam-tab/proximity"
	"go-quadcam-tab/snapshot"
)

const (
	REFRESH_INTERVAL = time.Second / 24

	// Consecutive empty reads after which an open device is considered
	// unplugged.
	MAX_MISSED_FRAMES = 48

	DEFAULT_JPEG_QUALITY = 90

	LABEL_START = "Start Camera"
	LABEL_STOP  = "Stop Camera"
)

var (
	ErrCaptureUnsupported = errors.New("capture is not available")
	ErrNoFrame            = errors.New("no frame captured yet")
)

// Telemetry is the latest-value view of the log stream.
type Telemetry interface {
	Lookup(channel string) (float64, bool)
}

// Options configures a Panel. Zero values fall back to defaults.
type Options struct {
	CameraIndex int
	// BorderColor defaults to white when nil.
	BorderColor *framefit.Color
	Interval    time.Duration
	SnapshotDir string
	JPEGQuality int
	Mapper      *proximity.Mapper
	// Now is the clock used for snapshot names.
	Now         func() time.Time
}

// Panel is the camera tab. Tick is meant to be driven from one goroutine;
// the capture device is guarded so link callbacks may release it from
// another.
type Panel struct {
	provider  CaptureProvider
	renderer  Renderer
	telemetry Telemetry
	opts      Options

	mu        sync.Mutex
	source    FrameSource
	opening   bool
	abortOpen bool
	closed    bool
	missed    int
	started   time.Time
	gotFirst  bool
	frame     gocv.Mat
	composed  gocv.Mat
	hasFrame  bool
	readings  proximity.Readings
}

// NewPanel builds a panel. provider may be nil when the host has no capture
// support; telemetry may be nil when no log stream is configured.
func NewPanel(provider CaptureProvider, renderer Renderer, telemetry Telemetry, opts Options) *Panel {
	if opts.Interval <= 0 {
		opts.Interval = REFRESH_INTERVAL
	}
	if opts.BorderColor == nil {
		white := framefit.White
		opts.BorderColor = &white
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = snapshot.Dir(snapshot.DefaultBase())
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = DEFAULT_JPEG_QUALITY
	}
	if opts.Mapper == nil {
		opts.Mapper = proximity.NewMapper()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if provider == nil {
		logging.WARNINGLogger.Println("No capture provider, camera tab runs telemetry only")
	}

	p := &Panel{
		provider:  provider,
		renderer:  renderer,
		telemetry: telemetry,
		opts:      opts,
		frame:     gocv.NewMat(),
		composed:  gocv.NewMat(),
		readings:  opts.Mapper.Initial(),
	}
	renderer.SetText(FIELD_BUTTON, LABEL_START)
	return p
}

// SetCameraIndex selects the device opened by the next start. An open
// device is not switched.
func (p *Panel) SetCameraIndex(index int) error {
	if index < 0 {
		return fmt.Errorf("camera index %d: must not be negative", index)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.CameraIndex = index
	return nil
}

func (p *Panel) CameraIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.CameraIndex
}

// CanCapture reports whether a capture provider was supplied.
func (p *Panel) CanCapture() bool {
	return p.provider != nil
}

func (p *Panel) Capturing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source != nil
}

// StartCapture opens the configured device. A failure is reported once on
// the display and capture stays off until the next explicit start. The
// panel lock is not held while the device opens; a stop, disconnect or
// Close arriving meanwhile releases the device as soon as it is open.
func (p *Panel) StartCapture() error {
	p.mu.Lock()

	if p.source != nil || p.opening {
		p.mu.Unlock()
		return nil
	}
	if p.provider == nil {
		p.mu.Unlock()
		p.renderer.Notice("Camera capture is not available on this host")
		return ErrCaptureUnsupported
	}
	index := p.opts.CameraIndex
	p.opening = true
	p.abortOpen = false
	p.mu.Unlock()

	// Opening a device can take seconds; ticks and link callbacks keep
	// running meanwhile.
	src, err := p.provider(index)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.opening = false

	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		logging.ERRORLogger.Printf("Cannot open camera %d: %v", index, err)
		p.renderer.Notice(fmt.Sprintf("Cannot open camera %d: %v", index, err))
		p.renderer.SetText(FIELD_BUTTON, LABEL_START)
		return err
	}
	if p.abortOpen || p.closed {
		if err := src.Close(); err != nil {
			logging.WARNINGLogger.Printf("Closing camera %d: %v", index, err)
		}
		if !p.closed {
			p.renderer.SetText(FIELD_BUTTON, LABEL_START)
		}
		logging.INFOLogger.Printf("Camera %d released, stopped while opening", index)
		return nil
	}

	p.source = src
	p.missed = 0
	p.started = time.Now()
	p.gotFirst = false
	p.renderer.SetText(FIELD_BUTTON, LABEL_STOP)
	logging.INFOLogger.Printf("Camera %d started", index)
	return nil
}

// StopCapture releases the device if one is open.
func (p *Panel) StopCapture() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked("stopped")
}

// ToggleCapture is the start/stop button.
func (p *Panel) ToggleCapture() error {
	if p.Capturing() {
		p.StopCapture()
		return nil
	}
	return p.StartCapture()
}

func (p *Panel) releaseLocked(reason string) {
	if p.opening {
		p.abortOpen = true
	}
	if p.source == nil {
		return
	}
	if err := p.source.Close(); err != nil {
		logging.WARNINGLogger.Printf("Closing camera %d: %v", p.opts.CameraIndex, err)
	}
	p.source = nil
	p.missed = 0
	p.renderer.SetText(FIELD_BUTTON, LABEL_START)
	logging.INFOLogger.Printf("Camera %d %s", p.opts.CameraIndex, reason)
}

// Tick runs one refresh cycle: video first, then readouts. It never
// blocks on the network and is safe to call whether or not capture runs.
func (p *Panel) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil {
		p.drawFrameLocked()
	}
	p.drawReadoutsLocked()
}

func (p *Panel) drawFrameLocked() {
	if !p.source.Read(&p.frame) {
		p.missed++
		if p.missed >= MAX_MISSED_FRAMES {
			p.renderer.Notice(fmt.Sprintf("Camera %d stopped delivering frames", p.opts.CameraIndex))
			p.releaseLocked("released after missing frames")
		}
		return
	}
	p.missed = 0
	p.hasFrame = true
	if !p.gotFirst {
		logging.INFOLogger.Printf("Time until first frame arrived: %.3f ms", float64(time.Since(p.started).Microseconds())/1e3)
		p.gotFirst = true
	}

	areaWidth, areaHeight := p.renderer.DisplaySize()
	spec, err := framefit.Fit(p.frame.Cols(), p.frame.Rows(), areaWidth, areaHeight, *p.opts.BorderColor)
	if err != nil {
		logging.DEBUGLogger.Printf("Skipping frame: %v", err)
		return
	}
	Composite(p.frame, spec, &p.composed)

	if err := p.renderer.SetFrame(p.composed); err != nil {
		logging.WARNINGLogger.Printf("Rendering frame failed: %v", err)
	}
}

func (p *Panel) drawReadoutsLocked() {
	lookup := func(string) (float64, bool) { return 0, false }
	if p.telemetry != nil {
		lookup = p.telemetry.Lookup
	}

	for _, a := range []struct {
		field   string
		channel string
	}{
		{FIELD_ROLL, "stabilizer.roll"},
		{FIELD_PITCH, "stabilizer.pitch"},
		{FIELD_YAW, "stabilizer.yaw"},
	} {
		if v, ok := lookup(a.channel); ok {
			p.renderer.SetText(a.field, fmt.Sprintf("%.2f", v))
		}
	}

	p.readings = p.opts.Mapper.Update(p.readings, lookup)

	for _, r := range p.readings.Proximity {
		field := FIELD_PROXIMITY_PREFIX + r.Name
		if !r.Valid {
			p.renderer.SetColor(field, COLOR_UNKNOWN)
			continue
		}
		p.renderer.SetText(field, fmt.Sprintf("%.1f cm", r.DistanceCm))
		if r.IsNear {
			p.renderer.SetColor(field, COLOR_NEAR)
		} else {
			p.renderer.SetColor(field, COLOR_CLEAR)
		}
	}
	if p.readings.Sonar.Valid {
		p.renderer.SetText(FIELD_SONAR, fmt.Sprintf("%.1f cm", p.readings.Sonar.DistanceCm))
	}
}

// Readings returns the readout computed by the last tick.
func (p *Panel) Readings() proximity.Readings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readings
}

// Snapshot writes the last captured frame as a JPEG and returns its path.
func (p *Panel) Snapshot() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasFrame || p.frame.Empty() {
		return "", ErrNoFrame
	}
	path, err := snapshot.Prepare(p.opts.SnapshotDir, p.opts.Now())
	if err != nil {
		p.renderer.Notice(fmt.Sprintf("Snapshot failed: %v", err))
		return "", err
	}
	if ok := gocv.IMWriteWithParams(path, p.frame, []int{gocv.IMWriteJpegQuality, p.opts.JPEGQuality}); !ok {
		err := fmt.Errorf("write snapshot %s failed", path)
		p.renderer.Notice(fmt.Sprintf("Snapshot failed: %v", err))
		return "", err
	}
	logging.INFOLogger.Printf("Snapshot saved to %s", path)
	return path, nil
}

// Run ticks every Interval until ctx is done. The device is released on
// return.
func (p *Panel) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	defer p.StopCapture()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Close releases the device and the frame buffers.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.releaseLocked("closed")
	p.frame.Close()
	p.composed.Close()
}

// Connected is called when the quadcopter link comes up.
func (p *Panel) Connected(uri string) {
	logging.DEBUGLogger.Printf("Crazyflie connected to %s", uri)
}

// Disconnected releases the camera, matching the tab's behaviour when the
// link drops.
func (p *Panel) Disconnected(uri string) {
	p.mu.Lock()
	p.releaseLocked("released on disconnect")
	p.mu.Unlock()
	logging.DEBUGLogger.Printf("Crazyflie disconnected from %s", uri)
}

func (p *Panel) ParamUpdated(name, value string) {
	logging.DEBUGLogger.Printf("Updated %s to %s", name, value)
}

func (p *Panel) LogError(config, msg string) {
	p.renderer.Notice(fmt.Sprintf("Error when using log config [%s]: %s", config, msg))
}
