//go:build !baremetal

package links

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialLink speaks the servo protocol through a real serial port, for hosts
// wired to the servo through an inverting open-collector adapter instead of
// a bare GPIO pin. The UART hardware keeps the bit timing, so no scheduling
// guard is needed; the trade-off is that the adapter cannot sense the idle
// line level, so presence is inferred from response timeouts instead.
type SerialLink struct {
	port     serial.Port
	portName string
	timeout  time.Duration
}

// SerialConfig holds configuration for opening a serial link.
type SerialConfig struct {
	// Port is the serial port path (e.g., "/dev/ttyUSB0").
	Port string

	// Timeout for a single response byte. Default is 50ms.
	Timeout time.Duration
}

// OpenSerial opens a serial port at the protocol's fixed 115200 8-N-1 rate.
func OpenSerial(cfg SerialConfig) (*SerialLink, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 50 * time.Millisecond
	}

	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &SerialLink{
		port:     port,
		portName: cfg.Port,
		timeout:  cfg.Timeout,
	}, nil
}

func (s *SerialLink) WriteByte(v byte) error {
	n, err := s.port.Write([]byte{v})
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != 1 {
		return errors.New("incomplete write")
	}
	return nil
}

func (s *SerialLink) ReadByte() (byte, error) {
	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("read failed: %w", err)
	}
	if n == 0 {
		return 0, ErrNoStartBit
	}
	return buf[0], nil
}

// Drive discards any stale input. On a single-wire adapter the transmitted
// request is echoed back into the receiver; flushing here and in Release
// keeps the echo out of the response.
func (s *SerialLink) Drive() error {
	s.flush()
	return nil
}

// Release discards the echo of the request that was just transmitted.
func (s *SerialLink) Release() error {
	s.flush()
	return nil
}

// ServoHoldingLine is optimistic: a UART cannot sense the line level, so an
// absent servo shows up as a response timeout instead.
func (s *SerialLink) ServoHoldingLine() (bool, error) {
	return true, nil
}

// LinePulledUp is optimistic for the same reason.
func (s *SerialLink) LinePulledUp() (bool, error) {
	return true, nil
}

// Suspend is a no-op; the UART hardware owns the bit timing.
func (s *SerialLink) Suspend() func() {
	return func() {}
}

func (s *SerialLink) Close() error {
	return s.port.Close()
}

// PortName returns the serial port path.
func (s *SerialLink) PortName() string {
	return s.portName
}

func (s *SerialLink) flush() {
	buf := make([]byte, 256)
	s.port.SetReadTimeout(5 * time.Millisecond)
	for {
		n, err := s.port.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	s.port.SetReadTimeout(s.timeout)
}
