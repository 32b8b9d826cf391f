package arduino_serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goburrow/serial"
)

const (
	MAX_LINE_LENGTH = 256
	LINE_BUFFER     = 64
)

var ErrLinkDown = errors.New("serial link down")

// LinkInstrument receives traffic notifications, mostly for logging.
type LinkInstrument struct {
	OnLine    func(line string)
	OnDropped func(line string)
	OnFailure func(err error)
}

// Link is a newline framed, bidirectional text channel over a serial port.
// A single goroutine reads the port; complete lines are queued for NextLine.
// Writes are serialized but callers are expected to own the link exclusively.
type Link struct {
	port       io.ReadWriteCloser
	lines      chan string
	done       chan struct{}
	instrument []LinkInstrument

	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error
	closeOnce sync.Once
}

func NewLink(port io.ReadWriteCloser, instrument ...LinkInstrument) *Link {
	l := &Link{
		port:       port,
		lines:      make(chan string, LINE_BUFFER),
		done:       make(chan struct{}),
		instrument: instrument,
	}
	go l.readLoop()
	return l
}

func (l *Link) readLoop() {
	defer close(l.done)
	buf := make([]byte, 128)
	line := make([]byte, 0, MAX_LINE_LENGTH)
	for {
		n, err := l.port.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case '\n':
				if len(line) > 0 {
					l.emit(string(line))
				}
				line = line[:0]
			case '\r':
			default:
				// overlong lines are truncated, never split
				if len(line) < MAX_LINE_LENGTH {
					line = append(line, b)
				}
			}
		}
		if err != nil {
			if errors.Is(err, serial.ErrTimeout) {
				continue
			}
			l.fail(err)
			return
		}
	}
}

// emit queues a line, dropping the oldest queued line when nobody is consuming.
func (l *Link) emit(line string) {
	for _, in := range l.instrument {
		if in.OnLine != nil {
			in.OnLine(line)
		}
	}
	for {
		select {
		case l.lines <- line:
			return
		default:
		}
		select {
		case dropped := <-l.lines:
			for _, in := range l.instrument {
				if in.OnDropped != nil {
					in.OnDropped(dropped)
				}
			}
		default:
		}
	}
}

func (l *Link) fail(err error) {
	l.errMu.Lock()
	first := l.err == nil
	if first {
		l.err = err
	}
	l.errMu.Unlock()
	if !first {
		return
	}
	for _, in := range l.instrument {
		if in.OnFailure != nil {
			in.OnFailure(err)
		}
	}
	l.closePort()
}

// Err returns the error that brought the link down, if any.
func (l *Link) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

func (l *Link) Healthy() bool {
	if l.Err() != nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *Link) downErr() error {
	if err := l.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrLinkDown, err)
	}
	return ErrLinkDown
}

// WriteLine writes one already framed line.
func (l *Link) WriteLine(line string) error {
	if !l.Healthy() {
		return l.downErr()
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := io.WriteString(l.port, line); err != nil {
		l.fail(err)
		return l.downErr()
	}
	return nil
}

// NextLine blocks for the next status line. Lines already queued are still
// delivered after the link goes down.
func (l *Link) NextLine(ctx context.Context) (string, error) {
	select {
	case line := <-l.lines:
		return line, nil
	case <-l.done:
		select {
		case line := <-l.lines:
			return line, nil
		default:
			return "", l.downErr()
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Drain discards and returns every queued line.
func (l *Link) Drain() []string {
	var out []string
	for {
		select {
		case line := <-l.lines:
			out = append(out, line)
		default:
			return out
		}
	}
}

func (l *Link) closePort() {
	l.closeOnce.Do(func() {
		_ = l.port.Close()
	})
}

// Close releases the port and waits for the reader to stop.
func (l *Link) Close() error {
	l.closePort()
	<-l.done
	return nil
}
