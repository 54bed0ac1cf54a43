package hitecd

// Link is the byte-level interface to the half-duplex servo line.
// This abstraction allows testing with mock implementations; hardware
// backends live in the links package.
type Link interface {
	// WriteByte transmits one byte while the line is driven.
	WriteByte(b byte) error

	// ReadByte receives one byte while the line is released.
	ReadByte() (byte, error)

	// Drive takes the line and holds it at the idle level.
	Drive() error

	// Release gives the line up so the servo can answer.
	Release() error

	// ServoHoldingLine reports whether the servo is pulling the released
	// line low while it prepares a response.
	ServoHoldingLine() (bool, error)

	// LinePulledUp reports whether the released line has returned high
	// after the response, which only the external pull-up resistor does.
	LinePulledUp() (bool, error)

	// Suspend blocks preemption for a timing-critical exchange and
	// returns the function that restores normal scheduling.
	Suspend() func()

	// Close releases any underlying resources.
	Close() error
}
