package arduino_serial

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	READY_BANNER = "[arduino] ready"
)

// EmulateFirmware returns the status line the firmware prints for one received line.
func EmulateFirmware(line string) string {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ":")
	if len(fields) == 3 && fields[1] != "" && firmwareAccepts(fields[0], fields[2]) {
		return fmt.Sprintf("[arduino] %s -> %s", fields[0], fields[2])
	}
	return fmt.Sprintf("[arduino] UNKNOWN: %s", line)
}

func firmwareAccepts(device, value string) bool {
	switch device {
	case "LIGHT", "FAN":
		return value == "ON" || value == "OFF"
	case "GARAGE":
		return value == "OPEN" || value == "CLOSE"
	case "THERMOSTAT":
		_, err := strconv.Atoi(value)
		return err == nil
	}
	return false
}

type TestDeviceOptions struct {
	// Latency is applied before every reply.
	Latency time.Duration
	// Mute makes the device swallow commands without replying.
	Mute bool
	// NoBanner skips the ready line printed on connect.
	NoBanner bool
	// Respond replaces EmulateFirmware when set. It may return several lines.
	Respond func(line string) string
}

// TestDevice emulates the firmware behind an in-memory serial port.
type TestDevice struct {
	opts TestDeviceOptions

	hostR *io.PipeReader
	hostW *io.PipeWriter
	devR  *io.PipeReader
	devW  *io.PipeWriter

	mu       sync.Mutex
	received []string
	done     chan struct{}
}

func NewTestDevice(opts TestDeviceOptions) *TestDevice {
	hostR, devW := io.Pipe()
	devR, hostW := io.Pipe()
	d := &TestDevice{
		opts:  opts,
		hostR: hostR,
		hostW: hostW,
		devR:  devR,
		devW:  devW,
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *TestDevice) run() {
	defer close(d.done)
	if !d.opts.NoBanner {
		if _, err := io.WriteString(d.devW, READY_BANNER+"\r\n"); err != nil {
			return
		}
	}
	scanner := bufio.NewScanner(d.devR)
	for scanner.Scan() {
		line := scanner.Text()
		d.mu.Lock()
		d.received = append(d.received, line)
		d.mu.Unlock()
		if d.opts.Mute {
			continue
		}
		if d.opts.Latency > 0 {
			time.Sleep(d.opts.Latency)
		}
		reply := EmulateFirmware(line)
		if d.opts.Respond != nil {
			reply = d.opts.Respond(line)
		}
		if _, err := io.WriteString(d.devW, reply+"\r\n"); err != nil {
			return
		}
	}
}

// Received returns every line the device has read so far, in arrival order.
func (d *TestDevice) Received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.received...)
}

// Unplug simulates the cable being pulled: reads hit EOF and writes fail.
func (d *TestDevice) Unplug() {
	_ = d.devW.CloseWithError(io.EOF)
	_ = d.devR.CloseWithError(io.ErrClosedPipe)
}

func (d *TestDevice) Read(p []byte) (int, error) {
	return d.hostR.Read(p)
}

func (d *TestDevice) Write(p []byte) (int, error) {
	return d.hostW.Write(p)
}

func (d *TestDevice) Close() error {
	_ = d.hostW.Close()
	_ = d.hostR.Close()
	return nil
}

// ensure interface compliance
var _ io.ReadWriteCloser = (*TestDevice)(nil)
