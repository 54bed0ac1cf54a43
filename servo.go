// Package hitecd drives Hitec D-series digital servos over their
// proprietary half-duplex single-wire serial protocol: position commands,
// live position reads, and read/write access to the servo's persistent
// configuration registers.
package hitecd

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/rattrayalex/HitecDServo/links"
)

// How long the servo takes to turn the line around and begin answering a
// read request.
const responseTurnaround = 14 * time.Millisecond

// Servo is a handle for one servo bound to one line. It is created
// detached; all protocol operations require a prior Attach. A handle must
// not be used from multiple goroutines: the line is half-duplex and every
// operation owns it for its full duration.
type Servo struct {
	link  Link
	clock clock.Clock

	// Cached from the servo during Attach and refreshed by ReadConfig.
	modelNumber      int
	counterclockwise bool
	angleFor850      int
	angleFor1500     int
	angleFor2150     int

	gentle *gentleSnapshot
}

// New returns a detached servo handle.
func New() *Servo {
	return &Servo{clock: clock.New()}
}

// Attached reports whether the handle is bound to a line.
func (s *Servo) Attached() bool {
	return s.link != nil
}

// Attach binds the handle to a byte-level link, takes the line, and primes
// the handle's caches (model number, rotation sense, calibration angles)
// from the servo. On failure the handle is left detached.
func (s *Servo) Attach(link Link) error {
	if s.link != nil {
		return fmt.Errorf("already attached")
	}

	s.link = link
	if err := s.link.Drive(); err != nil {
		s.link = nil
		return fmt.Errorf("failed to take the line: %w", err)
	}

	if _, err := s.ReadModelNumber(); err != nil {
		s.link = nil
		return err
	}
	if err := s.refreshCalibration(); err != nil {
		s.link = nil
		return err
	}

	return nil
}

// AttachPin is a convenience that wraps the pin in a bit-banged transceiver
// and attaches to it.
func (s *Servo) AttachPin(pin links.Pin) error {
	return s.Attach(links.NewBitBang(pin))
}

// Detach clears the binding. The servo hardware is not touched; it keeps
// whatever state it had.
func (s *Servo) Detach() {
	s.link = nil
	s.gentle = nil
}

// ModelNumber returns the model number cached at attach time.
func (s *Servo) ModelNumber() int {
	return s.modelNumber
}

// ReadModelNumber reads the model number register, e.g. 485 for a D485HW.
func (s *Servo) ReadModelNumber() (int, error) {
	v, err := s.ReadRegister(RegModelNumber.Address)
	if err != nil {
		return 0, err
	}
	s.modelNumber = int(v)
	return int(v), nil
}

// WriteRegister writes a 16-bit value to a register. No response is
// expected for a write. Don't use this unless you know what you're doing;
// it exists for diagnostics and tests.
func (s *Servo) WriteRegister(addr byte, val uint16) error {
	if s.link == nil {
		return ErrNotAttached
	}

	glog.V(2).Infof("write reg 0x%02X = 0x%04X", addr, val)

	frame := writeFrame(addr, val)
	resume := s.link.Suspend()
	err := s.sendFrame(frame)
	resume()
	if err != nil {
		return fmt.Errorf("register 0x%02X write: %w", addr, err)
	}
	return nil
}

// ReadRegister reads a 16-bit value from a register, running the full
// presence protocol: the servo must be holding the released line low before
// the response, and the pull-up resistor must return it high afterwards.
// A wholly missing response also reports ErrNoServo: serial adapters cannot
// sense the line, so an absent servo shows up there as a response timeout
// rather than a failed presence check.
func (s *Servo) ReadRegister(addr byte) (uint16, error) {
	if s.link == nil {
		return 0, ErrNotAttached
	}

	frame := readRequestFrame(addr)
	resume := s.link.Suspend()
	err := s.sendFrame(frame)
	resume()
	if err != nil {
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}

	if err := s.link.Release(); err != nil {
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}
	s.clock.Sleep(responseTurnaround)

	// The servo signals it is about to answer by pulling the released
	// line low. A line that reads high means nobody is out there.
	holding, err := s.link.ServoHoldingLine()
	if err != nil {
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}
	if !holding {
		s.clock.Sleep(2 * time.Millisecond)
		if err := s.link.Drive(); err != nil {
			glog.Warningf("re-taking line after missing servo: %v", err)
		}
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, ErrNoServo)
	}

	resume = s.link.Suspend()
	resp := make([]byte, 0, responseFrameLen)
	var readErr error
	for i := 0; i < responseFrameLen; i++ {
		b, err := s.link.ReadByte()
		if err != nil {
			readErr = err
			break
		}
		resp = append(resp, b)
	}
	resume()

	s.clock.Sleep(time.Millisecond)

	// By now the servo has let go; only the external resistor can pull
	// the line high. If it isn't high, the resistor is missing.
	up, err := s.link.LinePulledUp()
	if err != nil {
		s.link.Drive()
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}
	if !up {
		s.link.Drive()
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, ErrNoPullup)
	}

	if err := s.link.Drive(); err != nil {
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}

	if readErr != nil {
		if len(resp) == 0 {
			// Nothing came back at all. On a sensed line this is
			// near-unreachable once presence is confirmed; on a
			// serial adapter it is how an absent servo shows up.
			return 0, fmt.Errorf("register 0x%02X read: %w", addr, ErrNoServo)
		}
		return 0, fmt.Errorf("register 0x%02X read (%v): %w", addr, readErr, ErrCorrupt)
	}

	val, err := parseResponse(addr, resp)
	if err != nil {
		return 0, fmt.Errorf("register 0x%02X read: %w", addr, err)
	}

	glog.V(2).Infof("read reg 0x%02X = 0x%04X", addr, val)
	return val, nil
}

func (s *Servo) sendFrame(frame []byte) error {
	for _, b := range frame {
		if err := s.link.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// refreshCalibration re-reads rotation sense and the three calibration
// angles into the handle's caches. Conversions between pulse widths and raw
// angles depend on these.
func (s *Servo) refreshCalibration() error {
	dir, err := s.ReadRegister(RegDirection.Address)
	if err != nil {
		return err
	}
	s.counterclockwise = dir != 0

	left, err := s.ReadRegister(RegAngleLeft.Address)
	if err != nil {
		return err
	}
	center, err := s.ReadRegister(RegAngleCenter.Address)
	if err != nil {
		return err
	}
	right, err := s.ReadRegister(RegAngleRight.Address)
	if err != nil {
		return err
	}

	// On counterclockwise servos the registers hold mirrored values with
	// the endpoints swapped, so that angleFor850 < angleFor1500 <
	// angleFor2150 holds regardless of rotation sense.
	if s.counterclockwise {
		s.angleFor850 = MaxRawAngle - int(right)
		s.angleFor1500 = MaxRawAngle - int(center)
		s.angleFor2150 = MaxRawAngle - int(left)
	} else {
		s.angleFor850 = int(left)
		s.angleFor1500 = int(center)
		s.angleFor2150 = int(right)
	}

	return nil
}

// commitSettings tells the servo to persist and apply register changes,
// then waits out the documented 1s apply time.
func (s *Servo) commitSettings() error {
	if err := s.WriteRegister(RegSave.Address, saveKey); err != nil {
		return err
	}
	if err := s.WriteRegister(RegApply.Address, applyKey); err != nil {
		return err
	}
	s.clock.Sleep(time.Second)
	return nil
}
