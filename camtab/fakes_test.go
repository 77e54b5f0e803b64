package camtab

import (
	"errors"
	"image/color"

	"gocv.io/x/gocv"
)

type fakeSource struct {
	rows, cols int

	// fail makes Read report no frame.
	fail   bool
	reads  int
	closed int
}

func (s *fakeSource) Read(dst *gocv.Mat) bool {
	s.reads++
	if s.fail {
		return false
	}
	m := gocv.Zeros(s.rows, s.cols, gocv.MatTypeCV8UC3)
	defer m.Close()
	m.CopyTo(dst)
	return true
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

type renderedFrame struct {
	cols, rows int
	corner     [3]byte
	center     [3]byte
}

type fakeRenderer struct {
	width, height int
	frames        []renderedFrame
	texts         map[string]string
	colors        map[string]color.RGBA
	notices       []string
	frameErr      error
}

func newFakeRenderer(width, height int) *fakeRenderer {
	return &fakeRenderer{
		width:  width,
		height: height,
		texts:  make(map[string]string),
		colors: make(map[string]color.RGBA),
	}
}

func pixel(m gocv.Mat, row, col int) [3]byte {
	b := m.ToBytes()
	i := (row*m.Cols() + col) * 3
	return [3]byte{b[i], b[i+1], b[i+2]}
}

func (r *fakeRenderer) DisplaySize() (int, int) { return r.width, r.height }

func (r *fakeRenderer) SetFrame(frame gocv.Mat) error {
	r.frames = append(r.frames, renderedFrame{
		cols:   frame.Cols(),
		rows:   frame.Rows(),
		corner: pixel(frame, 0, 0),
		center: pixel(frame, frame.Rows()/2, frame.Cols()/2),
	})
	return r.frameErr
}

func (r *fakeRenderer) SetText(field, text string)          { r.texts[field] = text }
func (r *fakeRenderer) SetColor(field string, c color.RGBA) { r.colors[field] = c }
func (r *fakeRenderer) Notice(msg string)                   { r.notices = append(r.notices, msg) }

type fakeTelemetry map[string]float64

func (t fakeTelemetry) Lookup(channel string) (float64, bool) {
	v, ok := t[channel]
	return v, ok
}

func providerFor(src *fakeSource) (CaptureProvider, *int) {
	opened := 0
	return func(int) (FrameSource, error) {
		opened++
		return src, nil
	}, &opened
}

func failingProvider() CaptureProvider {
	return func(int) (FrameSource, error) {
		return nil, errors.New("no such device")
	}
}
