package arduino_serial

import (
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

type PortConfig struct {
	Address  string
	BaudRate int
	// ReadTimeout bounds each read so the reader loop can observe Close.
	ReadTimeout time.Duration
}

// OpenPort opens the serial device with the 8N1 framing the firmware expects.
func OpenPort(cfg PortConfig) (io.ReadWriteCloser, error) {
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Address, err)
	}
	return port, nil
}

// OpenLink opens the serial device and starts reading status lines from it.
func OpenLink(cfg PortConfig, instrument ...LinkInstrument) (*Link, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return NewLink(port, instrument...), nil
}
