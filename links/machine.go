//go:build baremetal

package links

import "machine"

// MCUPin adapts a TinyGo machine pin to the Pin interface.
type MCUPin struct {
	pin machine.Pin
}

func OpenMCUPin(pin machine.Pin) *MCUPin {
	return &MCUPin{pin: pin}
}

func (m *MCUPin) Output() {
	m.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
}

func (m *MCUPin) InputPullup() {
	m.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (m *MCUPin) High() {
	m.pin.High()
}

func (m *MCUPin) Low() {
	m.pin.Low()
}

func (m *MCUPin) Read() bool {
	return m.pin.Get()
}
