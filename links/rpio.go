//go:build linux

package links

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	rpioOnce sync.Once
	rpioErr  error
)

// GPIOPin adapts a Raspberry Pi GPIO pin to the Pin interface.
type GPIOPin struct {
	pin rpio.Pin
}

// OpenGPIO maps the GPIO registers (first call only) and returns the pin
// with the given BCM number.
func OpenGPIO(bcm int) (*GPIOPin, error) {
	rpioOnce.Do(func() {
		rpioErr = rpio.Open()
	})
	if rpioErr != nil {
		return nil, fmt.Errorf("failed to open gpio memory map: %w", rpioErr)
	}

	return &GPIOPin{pin: rpio.Pin(bcm)}, nil
}

func (g *GPIOPin) Output() {
	g.pin.Output()
}

func (g *GPIOPin) InputPullup() {
	g.pin.Input()
	g.pin.PullUp()
}

func (g *GPIOPin) High() {
	g.pin.High()
}

func (g *GPIOPin) Low() {
	g.pin.Low()
}

func (g *GPIOPin) Read() bool {
	return g.pin.Read() == rpio.High
}
