package links

// MockPin implements Pin for testing the bit-banged transceiver.
//
// Levels driven through High/Low are recorded in order; Read pops from a
// scripted queue and falls back to Idle when the queue runs dry.
type MockPin struct {
	Driven  []bool // levels set via High/Low, in order
	Samples []bool // levels returned by Read, consumed front to back
	Idle    bool   // level reported once Samples is exhausted
	Mode    string // last mode set: "output" or "input-pullup"
}

func (m *MockPin) Output() {
	m.Mode = "output"
}

func (m *MockPin) InputPullup() {
	m.Mode = "input-pullup"
}

func (m *MockPin) High() {
	m.Driven = append(m.Driven, true)
}

func (m *MockPin) Low() {
	m.Driven = append(m.Driven, false)
}

func (m *MockPin) Read() bool {
	if len(m.Samples) == 0 {
		return m.Idle
	}
	v := m.Samples[0]
	m.Samples = m.Samples[1:]
	return v
}

// MockLink implements the byte-level link contract for testing the framing
// and register layers without a pin or timing.
type MockLink struct {
	Written  []byte
	ReadData []byte
	ReadErr  error
	WriteErr error
	DriveErr error

	Holding  bool // line state reported right after Release
	PulledUp bool // line state reported after the response
	Driven   int  // number of Drive calls
	Released int  // number of Release calls
	Closed   bool

	// WriteFunc and ReadFunc allow custom behavior for complex tests.
	WriteFunc func(b byte) error
	ReadFunc  func() (byte, error)
}

// NewMockLink returns a mock with a healthy line: servo holding after
// release, pull-up restoring the level after the response.
func NewMockLink() *MockLink {
	return &MockLink{Holding: true, PulledUp: true}
}

func (m *MockLink) WriteByte(b byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(b)
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, b)
	return nil
}

func (m *MockLink) ReadByte() (byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc()
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.ReadData) == 0 {
		return 0, ErrNoStartBit
	}
	b := m.ReadData[0]
	m.ReadData = m.ReadData[1:]
	return b, nil
}

func (m *MockLink) Drive() error {
	m.Driven++
	return m.DriveErr
}

func (m *MockLink) Release() error {
	m.Released++
	return nil
}

func (m *MockLink) ServoHoldingLine() (bool, error) {
	return m.Holding, nil
}

func (m *MockLink) LinePulledUp() (bool, error) {
	return m.PulledUp, nil
}

func (m *MockLink) Suspend() func() {
	return func() {}
}

func (m *MockLink) Close() error {
	m.Closed = true
	return nil
}
