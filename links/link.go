// Package links provides hardware backends for the single-wire Hitec D-series
// serial protocol: a bit-banged GPIO transceiver for hosts with direct pin
// access, a serial-port transceiver for hosts wired through an inverting
// adapter, and mocks for testing.
package links

import "errors"

// Pin is the interface a GPIO backend must provide for bit-banging.
// Levels are electrical: true is high, false is low.
type Pin interface {
	// Output switches the pin to push-pull output mode.
	Output()

	// InputPullup releases the pin to high-impedance input with the
	// internal pull-up enabled. Most of the pull-up force on the servo
	// line comes from the external 2k resistor; the internal pull-up
	// alone is not strong enough.
	InputPullup()

	High()
	Low()
	Read() bool
}

// Byte-level failure modes.
var (
	// ErrNoStartBit means no start-bit edge arrived within the receive timeout.
	ErrNoStartBit = errors.New("no start bit within timeout")

	// ErrFraming means the stop bit had the wrong level.
	ErrFraming = errors.New("bad stop bit")
)
