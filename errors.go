package hitecd

import "errors"

// Sentinel errors for the failure modes callers branch on.
var (
	// ErrNoServo means no device answered a transmitted frame, or no
	// start bit arrived within the receive timeout.
	ErrNoServo = errors.New("no servo detected")

	// ErrNoPullup means the servo answered but the line failed to return
	// high afterwards: the external pull-up resistor is missing or the
	// wiring is bad.
	ErrNoPullup = errors.New("line not pulled up after response")

	// ErrCorrupt covers checksum mismatches, wrong echoed fields and
	// malformed byte framing in a response.
	ErrCorrupt = errors.New("corrupt response")

	// ErrUnsupportedModel means a configuration write was attempted on a
	// model not known to be safe to reconfigure.
	ErrUnsupportedModel = errors.New("unsupported servo model")

	// ErrNotAttached means the operation needs a handle bound to a pin.
	ErrNotAttached = errors.New("servo not attached")
)

// IsNoServo returns true if the error indicates an absent servo.
func IsNoServo(err error) bool {
	return errors.Is(err, ErrNoServo)
}

// IsNoPullup returns true if the error indicates a missing pull-up resistor.
func IsNoPullup(err error) bool {
	return errors.Is(err, ErrNoPullup)
}

// IsCorrupt returns true if the error indicates a corrupt response.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
