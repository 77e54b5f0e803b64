package camtab

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"gocv.io/x/gocv"

	"go-quadcam-tab/logging"
)

const (
	CAMERA_FRAME_WIDTH  = 640
	CAMERA_FRAME_HEIGHT = 480
)

var ErrDeviceUnavailable = errors.New("capture device unavailable")

// FrameSource is an open capture device. Read fills dst with the next frame
// and reports false when no frame is available.
type FrameSource interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// CaptureProvider opens capture device index. A nil provider means the build
// or host has no capture support.
type CaptureProvider func(index int) (FrameSource, error)

// Webcam is a V4L/UVC device opened through OpenCV.
type Webcam struct {
	index int
	vc    *gocv.VideoCapture
}

// OpenWebcam opens the webcam at index and requests width x height frames.
func OpenWebcam(index, width, height int) (*Webcam, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("%w: webcam %d: %v", ErrDeviceUnavailable, index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: webcam %d did not open", ErrDeviceUnavailable, index)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	logging.INFOLogger.Printf("Opened webcam %d", index)
	return &Webcam{index: index, vc: vc}, nil
}

// WebcamProvider returns a CaptureProvider for OpenCV webcams.
func WebcamProvider(width, height int) CaptureProvider {
	return func(index int) (FrameSource, error) {
		return OpenWebcam(index, width, height)
	}
}

func (w *Webcam) Read(dst *gocv.Mat) bool {
	return w.vc.Read(dst) && !dst.Empty()
}

func (w *Webcam) Close() error {
	logging.INFOLogger.Printf("Releasing webcam %d", w.index)
	return w.vc.Close()
}

// LibcameraSource reads raw NV12 frames from a libcamera-raw subprocess and
// hands out the luma plane as a BGR image.
type LibcameraSource struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	width  int
	height int
	buf    []byte
}

// StartLibcamera launches libcamera-raw on camera index.
func StartLibcamera(index, width, height, framerate, shutter int) (*LibcameraSource, error) {
	cmd := exec.Command(
		"libcamera-raw",
		"--camera", fmt.Sprint(index),
		"--width", fmt.Sprint(width),
		"--height", fmt.Sprint(height),
		"--framerate", fmt.Sprint(framerate),
		"--flush", "1",
		"-t", "0",
		"--shutter", fmt.Sprint(shutter),
		"--gain", "1",
		"--ev", "0",
		"--denoise", "off",
		"--contrast", "1",
		"-o", "-",
	)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: libcamera pipe: %v", ErrDeviceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start libcamera-raw: %v", ErrDeviceUnavailable, err)
	}
	logging.INFOLogger.Printf("Started libcamera-raw on camera %d (%dx%d @ %d fps)", index, width, height, framerate)
	return newLibcameraSource(cmd, out, width, height), nil
}

func newLibcameraSource(cmd *exec.Cmd, out io.ReadCloser, width, height int) *LibcameraSource {
	// NV12 (YUV 4:2:0) is one luma plane followed by a half-size chroma plane.
	return &LibcameraSource{
		cmd:    cmd,
		out:    out,
		width:  width,
		height: height,
		buf:    make([]byte, width*height+width*height/2),
	}
}

// LibcameraProvider returns a CaptureProvider backed by libcamera-raw.
func LibcameraProvider(width, height, framerate, shutter int) CaptureProvider {
	return func(index int) (FrameSource, error) {
		return StartLibcamera(index, width, height, framerate, shutter)
	}
}

func (l *LibcameraSource) Read(dst *gocv.Mat) bool {
	if _, err := io.ReadFull(l.out, l.buf); err != nil {
		logging.WARNINGLogger.Printf("libcamera read failed: %v", err)
		return false
	}
	luma, err := gocv.NewMatFromBytes(l.height, l.width, gocv.MatTypeCV8UC1, l.buf[:l.width*l.height])
	if err != nil {
		logging.WARNINGLogger.Printf("libcamera frame conversion failed: %v", err)
		return false
	}
	defer luma.Close()
	gocv.CvtColor(luma, dst, gocv.ColorGrayToBGR)
	return !dst.Empty()
}

func (l *LibcameraSource) Close() error {
	l.out.Close()
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}
	if err := l.cmd.Process.Kill(); err != nil {
		return err
	}
	l.cmd.Wait()
	logging.INFOLogger.Println("Stopped libcamera-raw")
	return nil
}
