package hitecd

import (
	"fmt"
	"time"
)

// AngleKeepDefault in an angle field of Config means "leave the servo's
// current calibration for this point untouched".
const AngleKeepDefault = -1

// Config is the servo's persistent configuration. Reading returns the full
// set; writing programs every field except travel-limit angles set to
// AngleKeepDefault, then commits and waits for the servo to apply.
type Config struct {
	// ID is a user-settable identifier, 0..254. Ignored by the protocol;
	// it only distinguishes servos for the human.
	ID int

	// Counterclockwise flips the direction of rotation. Factory default
	// is clockwise.
	Counterclockwise bool

	// Speed limits the travel rate as a percentage: 10, 20, ... 100.
	Speed int

	// Deadband is the insensitivity to small pulse-width changes, 1
	// (narrowest) to 10 (widest).
	Deadband int

	// SoftStart limits the power ramp when the servo first powers on:
	// one of 20, 40, 60, 80, 100 percent.
	SoftStart int

	// AngleFor850, AngleFor1500 and AngleFor2150 are the raw angles the
	// servo drives to at 850us, 1500us and 2150us pulses, 0..16383, or
	// AngleKeepDefault to leave a point unchanged. They must be set (or
	// left) in increasing order.
	AngleFor850  int
	AngleFor1500 int
	AngleFor2150 int

	// FailSafeMicros, if nonzero, is the pulse width (850..2150) the
	// servo drives to when its control signal is lost. Zero with
	// FailSafeLimp false means hold the last position.
	FailSafeMicros int

	// FailSafeLimp makes the servo go limp when its control signal is
	// lost. Mutually exclusive with FailSafeMicros.
	FailSafeLimp bool

	// OverloadProtection reduces power to the given percentage when the
	// servo stalls: 10, 20, 30, 40 or 50, or 100 to disable protection.
	OverloadProtection int

	// SmartSense enables Hitec's load-adaptive feedback mode. It cannot
	// be combined with a custom SensitivityRatio.
	SmartSense bool

	// SensitivityRatio tunes servo responsiveness when SmartSense is off,
	// 819 (softest) to 4095 (sharpest).
	SensitivityRatio int
}

// DefaultConfig returns the factory configuration.
func DefaultConfig() Config {
	return Config{
		ID:                 0,
		Counterclockwise:   false,
		Speed:              100,
		Deadband:           1,
		SoftStart:          20,
		AngleFor850:        AngleKeepDefault,
		AngleFor1500:       AngleKeepDefault,
		AngleFor2150:       AngleKeepDefault,
		FailSafeMicros:     0,
		FailSafeLimp:       false,
		OverloadProtection: 100,
		SmartSense:         true,
		SensitivityRatio:   4095,
	}
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	if c.ID < 0 || c.ID > 254 {
		return fmt.Errorf("id %d out of range 0..254", c.ID)
	}
	if c.Speed < 10 || c.Speed > 100 || c.Speed%10 != 0 {
		return fmt.Errorf("speed %d not one of 10, 20, ... 100", c.Speed)
	}
	if c.Deadband < 1 || c.Deadband > 10 {
		return fmt.Errorf("deadband %d out of range 1..10", c.Deadband)
	}
	switch c.SoftStart {
	case 20, 40, 60, 80, 100:
	default:
		return fmt.Errorf("soft start %d not one of 20, 40, 60, 80, 100", c.SoftStart)
	}
	for _, a := range []struct {
		name string
		val  int
	}{
		{"angle for 850us", c.AngleFor850},
		{"angle for 1500us", c.AngleFor1500},
		{"angle for 2150us", c.AngleFor2150},
	} {
		if a.val != AngleKeepDefault && (a.val < 0 || a.val > MaxRawAngle) {
			return fmt.Errorf("%s %d out of range 0..%d", a.name, a.val, MaxRawAngle)
		}
	}
	if c.AngleFor850 != AngleKeepDefault && c.AngleFor1500 != AngleKeepDefault &&
		c.AngleFor850 >= c.AngleFor1500 {
		return fmt.Errorf("angle for 850us must be below angle for 1500us")
	}
	if c.AngleFor1500 != AngleKeepDefault && c.AngleFor2150 != AngleKeepDefault &&
		c.AngleFor1500 >= c.AngleFor2150 {
		return fmt.Errorf("angle for 1500us must be below angle for 2150us")
	}
	if c.AngleFor850 != AngleKeepDefault && c.AngleFor2150 != AngleKeepDefault &&
		c.AngleFor850 >= c.AngleFor2150 {
		return fmt.Errorf("angle for 850us must be below angle for 2150us")
	}
	if c.FailSafeMicros != 0 {
		if c.FailSafeLimp {
			return fmt.Errorf("fail-safe position and fail-safe limp are mutually exclusive")
		}
		if c.FailSafeMicros < 850 || c.FailSafeMicros > 2150 {
			return fmt.Errorf("fail-safe pulse width %dus out of range 850..2150", c.FailSafeMicros)
		}
	}
	switch c.OverloadProtection {
	case 10, 20, 30, 40, 50, 100:
	default:
		return fmt.Errorf("overload protection %d not one of 10, 20, 30, 40, 50, 100", c.OverloadProtection)
	}
	if c.SmartSense {
		if c.SensitivityRatio != 4095 {
			return fmt.Errorf("sensitivity ratio cannot be set while smart sense is on")
		}
	} else if c.SensitivityRatio < 819 || c.SensitivityRatio > 4095 {
		return fmt.Errorf("sensitivity ratio %d out of range 819..4095", c.SensitivityRatio)
	}
	return nil
}

// ReadConfig reads the servo's full configuration. It also refreshes the
// handle's cached calibration, so pulse-width conversions reflect what was
// read.
func (s *Servo) ReadConfig() (Config, error) {
	var c Config

	id, err := s.ReadRegister(RegID.Address)
	if err != nil {
		return c, err
	}
	c.ID = int(id)

	if err := s.refreshCalibration(); err != nil {
		return c, err
	}
	c.Counterclockwise = s.counterclockwise
	c.AngleFor850 = s.angleFor850
	c.AngleFor1500 = s.angleFor1500
	c.AngleFor2150 = s.angleFor2150

	speed, err := s.ReadRegister(RegSpeed.Address)
	if err != nil {
		return c, err
	}
	c.Speed = int(speed) * 10

	deadband, err := s.ReadRegister(RegDeadbandA.Address)
	if err != nil {
		return c, err
	}
	c.Deadband = int(deadband)/4 + 1

	softStart, err := s.ReadRegister(RegSoftStart.Address)
	if err != nil {
		return c, err
	}
	c.SoftStart = decodeSoftStart(softStart)

	failSafe, err := s.ReadRegister(RegFailSafe.Address)
	if err != nil {
		return c, err
	}
	switch failSafe {
	case 0:
		// hold last position
	case 1:
		c.FailSafeLimp = true
	default:
		c.FailSafeMicros = int(failSafe)
	}

	overload, err := s.ReadRegister(RegOverload.Address)
	if err != nil {
		return c, err
	}
	c.OverloadProtection = int(overload)

	senseA, err := s.ReadRegister(RegSenseSlotA.Address)
	if err != nil {
		return c, err
	}
	c.SmartSense = senseA != senseDisabled
	if c.SmartSense {
		c.SensitivityRatio = 4095
	} else {
		ratio, err := s.ReadRegister(RegSensitivity.Address)
		if err != nil {
			return c, err
		}
		c.SensitivityRatio = int(ratio)
	}

	return c, nil
}

// WriteConfig factory-resets the servo, programs every field of the given
// configuration, commits, and re-reads the calibration caches. The whole
// operation takes a little over two seconds.
//
// Reconfiguring is refused for models not known to be safe unless
// bypassModelCheck is set; registers on other models may have different
// meanings and a blind write can permanently confuse the servo.
func (s *Servo) WriteConfig(c Config, bypassModelCheck bool) error {
	if s.link == nil {
		return ErrNotAttached
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if !bypassModelCheck {
		model, err := s.ReadModelNumber()
		if err != nil {
			return err
		}
		if model != ModelD485 {
			return fmt.Errorf("model D%d: %w", model, ErrUnsupportedModel)
		}
	}

	// Start from a clean slate so fields this driver doesn't model can't
	// linger in unexpected states.
	if err := s.WriteRegister(RegFactoryReset.Address, factoryResetKey); err != nil {
		return err
	}
	s.clock.Sleep(time.Second)

	if err := s.WriteRegister(RegID.Address, uint16(c.ID)); err != nil {
		return err
	}
	dir := uint16(0)
	if c.Counterclockwise {
		dir = 1
	}
	if err := s.WriteRegister(RegDirection.Address, dir); err != nil {
		return err
	}
	if err := s.WriteRegister(RegSpeed.Address, uint16(c.Speed/10)); err != nil {
		return err
	}

	// The deadband is spread over three registers at fixed offsets from a
	// common base.
	base := uint16(4*c.Deadband - 4)
	if err := s.WriteRegister(RegDeadbandA.Address, base); err != nil {
		return err
	}
	if err := s.WriteRegister(RegDeadbandB.Address, base+5); err != nil {
		return err
	}
	if err := s.WriteRegister(RegDeadbandC.Address, base+11); err != nil {
		return err
	}

	if err := s.WriteRegister(RegSoftStart.Address, encodeSoftStart(c.SoftStart)); err != nil {
		return err
	}

	if err := s.writeAngles(c); err != nil {
		return err
	}

	failSafe := uint16(0)
	switch {
	case c.FailSafeLimp:
		failSafe = 1
	case c.FailSafeMicros != 0:
		failSafe = uint16(c.FailSafeMicros)
	}
	if err := s.WriteRegister(RegFailSafe.Address, failSafe); err != nil {
		return err
	}

	if err := s.WriteRegister(RegOverload.Address, uint16(c.OverloadProtection)); err != nil {
		return err
	}

	if c.SmartSense {
		// Enabling smart sense means copying two model-specific magic
		// values from read-only registers into the two active slots.
		magicA, err := s.ReadRegister(RegSenseMagicA.Address)
		if err != nil {
			return err
		}
		magicB, err := s.ReadRegister(RegSenseMagicB.Address)
		if err != nil {
			return err
		}
		if err := s.WriteRegister(RegSenseSlotA.Address, magicA); err != nil {
			return err
		}
		if err := s.WriteRegister(RegSenseSlotB.Address, magicB); err != nil {
			return err
		}
	} else {
		if err := s.WriteRegister(RegSenseSlotA.Address, senseDisabled); err != nil {
			return err
		}
		if err := s.WriteRegister(RegSenseSlotB.Address, senseDisabled); err != nil {
			return err
		}
		if err := s.WriteRegister(RegSensitivity.Address, uint16(c.SensitivityRatio)); err != nil {
			return err
		}
	}

	if err := s.commitSettings(); err != nil {
		return err
	}

	return s.refreshCalibration()
}

// writeAngles programs the travel-limit registers, mirroring for
// counterclockwise servos. Fields set to AngleKeepDefault are skipped,
// leaving the factory-reset values in place.
func (s *Servo) writeAngles(c Config) error {
	type point struct {
		cwReg  Register
		ccwReg Register
		angle  int
	}
	points := []point{
		{RegAngleLeft, RegAngleRight, c.AngleFor850},
		{RegAngleCenter, RegAngleCenter, c.AngleFor1500},
		{RegAngleRight, RegAngleLeft, c.AngleFor2150},
	}
	for _, p := range points {
		if p.angle == AngleKeepDefault {
			continue
		}
		reg, val := p.cwReg, uint16(p.angle)
		if c.Counterclockwise {
			reg, val = p.ccwReg, uint16(MaxRawAngle-p.angle)
		}
		if err := s.WriteRegister(reg.Address, val); err != nil {
			return err
		}
	}
	return nil
}

var softStartTable = []struct {
	percent int
	raw     uint16
}{
	{20, 0x0001},
	{40, 0x0003},
	{60, 0x0006},
	{80, 0x0008},
	{100, 0x0064},
}

func encodeSoftStart(percent int) uint16 {
	for _, e := range softStartTable {
		if e.percent == percent {
			return e.raw
		}
	}
	return softStartTable[0].raw
}

func decodeSoftStart(raw uint16) int {
	for _, e := range softStartTable {
		if e.raw == raw {
			return e.percent
		}
	}
	return 20
}
