package hitecd

// Pulse widths are handled in quarter-microseconds, the servo's native
// resolution for its target register. The usable range 850..2150us maps to
// 3400..8600 quarter-microseconds.
const (
	MinQuarterMicros = 3400
	MidQuarterMicros = 6000
	MaxQuarterMicros = 8600
)

// QuarterMicrosToRawAngle converts a pulse width in quarter-microseconds to
// the raw angle the servo would drive to, using the calibration cached at
// attach time. Inputs outside 3400..8600 are clamped. The conversion is
// piecewise linear through the three calibration points and exact at each.
func (s *Servo) QuarterMicrosToRawAngle(q int) (int, error) {
	if !s.Attached() {
		return 0, ErrNotAttached
	}
	switch {
	case q <= MinQuarterMicros:
		return s.angleFor850, nil
	case q >= MaxQuarterMicros:
		return s.angleFor2150, nil
	case q < MidQuarterMicros:
		return interpolate(q,
			MinQuarterMicros, s.angleFor850,
			MidQuarterMicros, s.angleFor1500), nil
	default:
		return interpolate(q,
			MidQuarterMicros, s.angleFor1500,
			MaxQuarterMicros, s.angleFor2150), nil
	}
}

// RawAngleToQuarterMicros converts a raw angle to the pulse width in
// quarter-microseconds that would command it, the inverse of
// QuarterMicrosToRawAngle. Angles outside the calibrated travel are
// clamped.
func (s *Servo) RawAngleToQuarterMicros(angle int) (int, error) {
	if !s.Attached() {
		return 0, ErrNotAttached
	}
	switch {
	case angle <= s.angleFor850:
		return MinQuarterMicros, nil
	case angle >= s.angleFor2150:
		return MaxQuarterMicros, nil
	case angle < s.angleFor1500:
		return interpolate(angle,
			s.angleFor850, MinQuarterMicros,
			s.angleFor1500, MidQuarterMicros), nil
	default:
		return interpolate(angle,
			s.angleFor1500, MidQuarterMicros,
			s.angleFor2150, MaxQuarterMicros), nil
	}
}

// interpolate maps x from the segment [x0, x1] onto [y0, y1] with rounding
// to nearest.
func interpolate(x, x0, y0, x1, y1 int) int {
	num := (x-x0)*(y1-y0) + (x1-x0)/2
	return y0 + num/(x1-x0)
}

// ReadPosition returns the servo's current raw angle, 0..16383. The value
// is the register as the servo reports it; on counterclockwise servos it
// grows in the opposite sense from commanded pulse widths.
func (s *Servo) ReadPosition() (int, error) {
	v, err := s.ReadRegister(RegCurrentPosition.Address)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ReadCurrentQuarterMicros returns the pulse width, in quarter-microseconds,
// that corresponds to the servo's current position.
func (s *Servo) ReadCurrentQuarterMicros() (int, error) {
	pos, err := s.ReadPosition()
	if err != nil {
		return 0, err
	}
	if s.counterclockwise {
		pos = MaxRawAngle - pos
	}
	return s.RawAngleToQuarterMicros(pos)
}

// ReadCurrentMicroseconds is ReadCurrentQuarterMicros in whole microseconds.
func (s *Servo) ReadCurrentMicroseconds() (int, error) {
	q, err := s.ReadCurrentQuarterMicros()
	if err != nil {
		return 0, err
	}
	return (q + 2) / 4, nil
}
