package hitecd

// Register represents a 16-bit servo register at an 8-bit address.
// Registers are the servo's authoritative, persistent state; the driver
// caches nothing beyond the handle's calibration fields.
type Register struct {
	Address  byte
	ReadOnly bool
}

// D-series register map. The three travel-limit registers store the raw
// angles for the 850us, 1500us and 2150us calibration points; on
// counterclockwise servos they hold the mirrored (16383 - x) values with
// the endpoints swapped.
var (
	RegModelNumber     = Register{Address: 0x00, ReadOnly: true}
	RegCurrentPosition = Register{Address: 0x0C, ReadOnly: true}
	RegTargetPoint     = Register{Address: 0x1E} // pulse width in quarter-microseconds

	RegID          = Register{Address: 0x32}
	RegSenseSlotB  = Register{Address: 0x44}
	RegApply       = Register{Address: 0x46}
	RegFailSafe    = Register{Address: 0x4C}
	RegDeadbandA   = Register{Address: 0x4E}
	RegSpeed       = Register{Address: 0x54}
	RegPowerLimit  = Register{Address: 0x56}
	RegDirection   = Register{Address: 0x5E}
	RegSoftStart   = Register{Address: 0x60}
	RegSensitivity = Register{Address: 0x64}
	RegDeadbandB   = Register{Address: 0x66}
	RegDeadbandC   = Register{Address: 0x68}
	RegSenseSlotA  = Register{Address: 0x6C}
	RegFactoryReset = Register{Address: 0x6E}
	RegSave         = Register{Address: 0x70}
	RegOverload     = Register{Address: 0x9C}

	RegAngleRight  = Register{Address: 0xB0} // 2150us calibration point
	RegAngleLeft   = Register{Address: 0xB2} // 850us calibration point
	RegAngleCenter = Register{Address: 0xC2} // 1500us calibration point

	RegSenseMagicA = Register{Address: 0xD4, ReadOnly: true}
	RegSenseMagicB = Register{Address: 0xD6, ReadOnly: true}
)

// Magic values for the control registers.
const (
	factoryResetKey = 0x0F0F // written to RegFactoryReset
	saveKey         = 0xFFFF // written to RegSave
	applyKey        = 0x0001 // written to RegApply

	// Value in the smart-sense slots when smart sense is disabled.
	senseDisabled = 0x0FFF
)

// Raw angles run 0..16383; the servo's position unit is 14-bit.
const MaxRawAngle = 16383

// ModelD485 is the only model family known to be safe to reconfigure.
const ModelD485 = 485

// DefaultAngleFor850 returns the factory-default raw angle for the 850us
// point, or -1 for models without known defaults.
func DefaultAngleFor850(modelNumber int) int {
	if modelNumber == ModelD485 {
		return 3381
	}
	return -1
}

// DefaultAngleFor1500 returns the factory-default raw angle for the 1500us
// point, or -1 for models without known defaults.
func DefaultAngleFor1500(modelNumber int) int {
	if modelNumber == ModelD485 {
		return 8192
	}
	return -1
}

// DefaultAngleFor2150 returns the factory-default raw angle for the 2150us
// point, or -1 for models without known defaults.
func DefaultAngleFor2150(modelNumber int) int {
	if modelNumber == ModelD485 {
		return 13002
	}
	return -1
}

// MinSafeRawAngle returns a conservative lower bound the servo can be
// driven to without hitting a mechanical stop, or -1 if unknown.
func MinSafeRawAngle(modelNumber int) int {
	if modelNumber == ModelD485 {
		return 731
	}
	return -1
}

// MaxSafeRawAngle returns a conservative upper bound the servo can be
// driven to without hitting a mechanical stop, or -1 if unknown.
func MaxSafeRawAngle(modelNumber int) int {
	if modelNumber == ModelD485 {
		return 15652
	}
	return -1
}
