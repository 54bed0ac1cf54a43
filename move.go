package hitecd

import (
	"time"

	"github.com/golang/glog"
)

const (
	settleInterval = 100 * time.Millisecond
	settleCeiling  = 10 * time.Second

	// Largest raw-angle delta between consecutive polls that still counts
	// as settled, for normal and gentle moves respectively.
	settleDelta = 9
	gentleDelta = 3

	gentleMaxPolls = 50

	// Near-full-travel envelope programmed while gentle movement is
	// active, together with a hard speed and power clamp.
	gentleAngleLeft   = 50
	gentleAngleCenter = 8192
	gentleAngleRight  = 16333
	gentleSpeedRaw    = 0x0005
	gentlePowerRaw    = 0x0190
)

// WriteTargetQuarterMicros commands the servo to a pulse width in
// quarter-microseconds and returns immediately, without waiting for the
// servo to get there. The input is clamped to 3400..8600.
func (s *Servo) WriteTargetQuarterMicros(q int) error {
	if q < MinQuarterMicros {
		q = MinQuarterMicros
	}
	if q > MaxQuarterMicros {
		q = MaxQuarterMicros
	}
	return s.WriteRegister(RegTargetPoint.Address, uint16(q))
}

// WriteTargetMicroseconds is WriteTargetQuarterMicros with a whole
// microsecond input.
func (s *Servo) WriteTargetMicroseconds(micros int) error {
	return s.WriteTargetQuarterMicros(micros * 4)
}

// MoveAndSettle commands a target pulse width and polls the position every
// 100ms until two consecutive reads differ by fewer than 10 raw angle
// units. The final position is returned.
//
// A servo that never stops moving (fighting an external load, or
// oscillating) would poll forever, so after 10 seconds the move is declared
// done anyway with settled=false. That is a degraded success, not an
// error: the command was accepted and the last observed position is valid.
func (s *Servo) MoveAndSettle(q int) (pos int, settled bool, err error) {
	if err := s.WriteTargetQuarterMicros(q); err != nil {
		return 0, false, err
	}
	return s.waitForSettle(settleDelta, settleCeiling)
}

func (s *Servo) waitForSettle(maxDelta int, ceiling time.Duration) (int, bool, error) {
	start := s.clock.Now()
	prev := -1

	for i := 1; ; i++ {
		// Schedule each poll off the start time rather than the
		// previous poll, so read latency doesn't accumulate.
		next := start.Add(time.Duration(i) * settleInterval)
		if d := next.Sub(s.clock.Now()); d > 0 {
			s.clock.Sleep(d)
		}

		pos, err := s.ReadPosition()
		if err != nil {
			return 0, false, err
		}
		if prev >= 0 && abs(pos-prev) <= maxDelta {
			return pos, true, nil
		}
		prev = pos

		if s.clock.Now().Sub(start) >= ceiling {
			glog.Warningf("servo still moving after %v; giving up on settle at position %d", ceiling, pos)
			return pos, false, nil
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// gentleSnapshot holds the register values gentle movement temporarily
// overwrites, so ExitGentleMovement can restore them verbatim.
type gentleSnapshot struct {
	angleLeft   uint16
	angleCenter uint16
	angleRight  uint16
	speed       uint16
	power       uint16
}

// EnterGentleMovement puts the servo in a mode for safely exploring its
// mechanical range: near-full travel limits with the speed and power
// clamped so low that hitting an end stop does no damage. The servo's
// normal settings are saved and restored by ExitGentleMovement. Entering
// while already active is a no-op, so the saved settings are never
// overwritten by the gentle values themselves.
//
// The mode survives in the servo's registers, not just in this handle; a
// power cycle before ExitGentleMovement leaves the servo in the gentle
// configuration.
func (s *Servo) EnterGentleMovement() error {
	if s.link == nil {
		return ErrNotAttached
	}
	if s.gentle != nil {
		return nil
	}

	var snap gentleSnapshot
	var err error
	if snap.angleLeft, err = s.ReadRegister(RegAngleLeft.Address); err != nil {
		return err
	}
	if snap.angleCenter, err = s.ReadRegister(RegAngleCenter.Address); err != nil {
		return err
	}
	if snap.angleRight, err = s.ReadRegister(RegAngleRight.Address); err != nil {
		return err
	}
	if snap.speed, err = s.ReadRegister(RegSpeed.Address); err != nil {
		return err
	}
	if snap.power, err = s.ReadRegister(RegPowerLimit.Address); err != nil {
		return err
	}

	if err := s.WriteRegister(RegAngleLeft.Address, gentleAngleLeft); err != nil {
		return err
	}
	if err := s.WriteRegister(RegAngleCenter.Address, gentleAngleCenter); err != nil {
		return err
	}
	if err := s.WriteRegister(RegAngleRight.Address, gentleAngleRight); err != nil {
		return err
	}
	if err := s.WriteRegister(RegSpeed.Address, gentleSpeedRaw); err != nil {
		return err
	}
	if err := s.WriteRegister(RegPowerLimit.Address, gentlePowerRaw); err != nil {
		return err
	}
	if err := s.commitSettings(); err != nil {
		return err
	}

	s.gentle = &snap
	return nil
}

// ExitGentleMovement restores the registers saved by EnterGentleMovement,
// commits, and refreshes the handle's calibration caches. Exiting while not
// active is a no-op.
func (s *Servo) ExitGentleMovement() error {
	if s.gentle == nil {
		return nil
	}
	snap := s.gentle

	if err := s.WriteRegister(RegAngleLeft.Address, snap.angleLeft); err != nil {
		return err
	}
	if err := s.WriteRegister(RegAngleCenter.Address, snap.angleCenter); err != nil {
		return err
	}
	if err := s.WriteRegister(RegAngleRight.Address, snap.angleRight); err != nil {
		return err
	}
	if err := s.WriteRegister(RegSpeed.Address, snap.speed); err != nil {
		return err
	}
	if err := s.WriteRegister(RegPowerLimit.Address, snap.power); err != nil {
		return err
	}
	if err := s.commitSettings(); err != nil {
		return err
	}

	s.gentle = nil
	return s.refreshCalibration()
}

// MoveGently drives the servo toward a raw angle under the gentle envelope
// and waits for it to come to rest, returning where it stopped. Gentle
// movement is entered automatically if it isn't active yet. A servo blocked
// by an end stop simply stops short, which is the point of the mode.
func (s *Servo) MoveGently(rawAngle int) (int, error) {
	if err := s.EnterGentleMovement(); err != nil {
		return 0, err
	}
	if rawAngle < gentleAngleLeft {
		rawAngle = gentleAngleLeft
	}
	if rawAngle > gentleAngleRight {
		rawAngle = gentleAngleRight
	}

	// While the gentle envelope is programmed, pulse widths map linearly
	// onto it: 3400 quarter-us at the left edge, 8600 at the right.
	q := interpolate(rawAngle,
		gentleAngleLeft, MinQuarterMicros,
		gentleAngleRight, MaxQuarterMicros)
	if err := s.WriteTargetQuarterMicros(q); err != nil {
		return 0, err
	}

	pos, _, err := s.waitForSettle(gentleDelta, gentleMaxPolls*settleInterval)
	return pos, err
}
