package links

import (
	"time"
)

const (
	// One bit at 115200 baud. The servo protocol is 8-N-1 with inverted
	// polarity: idle low, start bit high, data bits inverted, stop bit low.
	bitPeriod = 8680 * time.Nanosecond

	// How long to wait for the leading edge of a response byte.
	startBitTimeout = 4 * time.Millisecond
)

// BitBang drives the servo protocol over a single GPIO pin.
//
// Bit edges are scheduled against the monotonic time of the frame start
// rather than chained sleeps, so per-bit code overhead does not accumulate
// into baud-rate drift.
type BitBang struct {
	pin Pin
}

// NewBitBang creates a transceiver on the given pin. The pin is left
// untouched until the first Drive call.
func NewBitBang(pin Pin) *BitBang {
	return &BitBang{pin: pin}
}

// Drive takes the line: output mode, idle low.
func (b *BitBang) Drive() error {
	b.pin.Output()
	b.pin.Low()
	return nil
}

// Release gives the line up for the servo to answer on.
func (b *BitBang) Release() error {
	b.pin.InputPullup()
	return nil
}

// ServoHoldingLine reports whether the servo is actively pulling the
// released line low, which it does while preparing a response.
func (b *BitBang) ServoHoldingLine() (bool, error) {
	return !b.pin.Read(), nil
}

// LinePulledUp reports whether the released line has returned high.
func (b *BitBang) LinePulledUp() (bool, error) {
	return b.pin.Read(), nil
}

// Suspend blocks preemption for a timing-critical byte exchange and returns
// the function that restores normal scheduling.
func (b *BitBang) Suspend() func() {
	return suspendPreemption()
}

// WriteByte emits one byte as an inverted 8-N-1 frame, LSB first.
func (b *BitBang) WriteByte(v byte) error {
	start := time.Now()

	// Start bit. Polarity is inverted, so the start bit is high.
	b.pin.High()
	for i := 0; i < 8; i++ {
		spinUntil(start.Add(time.Duration(i+1) * bitPeriod))
		if v&(1<<i) != 0 {
			b.pin.Low()
		} else {
			b.pin.High()
		}
	}

	spinUntil(start.Add(9 * bitPeriod))
	b.pin.Low() // stop bit, also the idle level
	spinUntil(start.Add(10 * bitPeriod))

	return nil
}

// ReadByte receives one byte. It waits up to 4ms for the start-bit edge,
// then samples at the nominal center of each bit: 1.5 bit periods after the
// edge for the first data bit, one period apart after that.
func (b *BitBang) ReadByte() (byte, error) {
	deadline := time.Now().Add(startBitTimeout)
	for !b.pin.Read() {
		if time.Now().After(deadline) {
			return 0, ErrNoStartBit
		}
	}
	edge := time.Now()

	var v byte
	for i := 0; i < 8; i++ {
		spinUntil(edge.Add(bitPeriod * time.Duration(2*i+3) / 2))
		if !b.pin.Read() {
			v |= 1 << i
		}
	}

	// Stop bit is low; anything else is a framing fault.
	spinUntil(edge.Add(bitPeriod * 19 / 2))
	if b.pin.Read() {
		return 0, ErrFraming
	}

	return v, nil
}

// Close releases the line.
func (b *BitBang) Close() error {
	b.pin.InputPullup()
	return nil
}

// spinUntil busy-waits to the deadline. time.Sleep cannot hold sub-10us
// deadlines, so bit timing has to burn the core.
func spinUntil(t time.Time) {
	for time.Now().Before(t) {
	}
}
