package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"go-quadcam-tab/logging"
)

const DEFAULT_BAUD_RATE = 115200

// PortOptions describes the serial line of a radio bridge that prints the log
// stream as text records.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// Normalize validates the options and applies defaults for unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DEFAULT_BAUD_RATE
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the options into the structure go.bug.st/serial opens
// ports with.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// SerialSource reads the log stream from a serial line, one record per line:
//
//	[<timestamp>:]<name>=<value>[,<name>=<value>...]
type SerialSource struct {
	port  io.ReadCloser
	store *Store
}

// OpenSerialSource opens path with opts.
func OpenSerialSource(path string, opts PortOptions, store *Store) (*SerialSource, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	logging.INFOLogger.Printf("Opened telemetry serial port %s at %d baud", path, mode.BaudRate)
	return NewSerialSource(port, store), nil
}

func NewSerialSource(port io.ReadCloser, store *Store) *SerialSource {
	return &SerialSource{port: port, store: store}
}

// Run feeds records into the store until ctx is cancelled or the port is
// closed. The port is closed on return.
func (s *SerialSource) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.port.Close()
		case <-done:
		}
	}()
	defer s.port.Close()

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sample, err := ParseLine(line)
		if err != nil {
			logging.DEBUGLogger.Printf("Skipping serial record %q: %v", line, err)
			continue
		}
		s.store.Update(sample)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return scanner.Err()
}

// ParseLine decodes one serial record.
func ParseLine(line string) (Sample, error) {
	var sample Sample

	if i := strings.IndexByte(line, ':'); i >= 0 {
		ts, err := strconv.ParseInt(strings.TrimSpace(line[:i]), 10, 64)
		if err != nil {
			return sample, fmt.Errorf("invalid timestamp %q", line[:i])
		}
		sample.Timestamp = ts
		line = line[i+1:]
	}

	sample.Values = make(map[string]float64)
	for _, field := range strings.Split(line, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return sample, fmt.Errorf("field %q is not name=value", field)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return sample, fmt.Errorf("field %q has no name", field)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return sample, fmt.Errorf("field %q: %w", field, err)
		}
		sample.Values[name] = v
	}
	return sample, nil
}
