package links

import (
	"errors"
	"testing"
)

// levelsFor returns the line levels of one transmitted byte: inverted
// 8-N-1, LSB first. Start bit high, set data bits low, stop bit low.
func levelsFor(v byte) []bool {
	levels := []bool{true}
	for i := 0; i < 8; i++ {
		levels = append(levels, v&(1<<i) == 0)
	}
	return append(levels, false)
}

func TestWriteByteLevels(t *testing.T) {
	for _, v := range []byte{0x00, 0x96, 0x69, 0xFF, 0x55} {
		pin := &MockPin{}
		b := NewBitBang(pin)
		if err := b.WriteByte(v); err != nil {
			t.Fatalf("WriteByte(0x%02X): %v", v, err)
		}
		want := levelsFor(v)
		if len(pin.Driven) != len(want) {
			t.Fatalf("0x%02X drove %d levels, want %d", v, len(pin.Driven), len(want))
		}
		for i := range want {
			if pin.Driven[i] != want[i] {
				t.Errorf("0x%02X level %d = %v, want %v", v, i, pin.Driven[i], want[i])
			}
		}
	}
}

func TestReadByteDecodes(t *testing.T) {
	for _, v := range []byte{0x00, 0x69, 0xA5, 0xFF} {
		pin := &MockPin{Samples: levelsFor(v)}
		b := NewBitBang(pin)
		got, err := b.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte for 0x%02X: %v", v, err)
		}
		if got != v {
			t.Errorf("ReadByte = 0x%02X, want 0x%02X", got, v)
		}
	}
}

func TestReadByteRoundTrip(t *testing.T) {
	// What WriteByte drives, ReadByte must decode.
	out := &MockPin{}
	b := NewBitBang(out)
	if err := b.WriteByte(0x3C); err != nil {
		t.Fatal(err)
	}

	in := &MockPin{Samples: out.Driven}
	got, err := NewBitBang(in).ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x3C {
		t.Errorf("round trip = 0x%02X, want 0x3C", got)
	}
}

func TestReadByteNoStartBit(t *testing.T) {
	// Line stays at idle low; the 4ms wait must expire.
	pin := &MockPin{Idle: false}
	_, err := NewBitBang(pin).ReadByte()
	if !errors.Is(err, ErrNoStartBit) {
		t.Errorf("err = %v, want ErrNoStartBit", err)
	}
}

func TestReadByteFramingError(t *testing.T) {
	levels := levelsFor(0x42)
	levels[len(levels)-1] = true // stop bit must be low
	pin := &MockPin{Samples: levels}
	_, err := NewBitBang(pin).ReadByte()
	if !errors.Is(err, ErrFraming) {
		t.Errorf("err = %v, want ErrFraming", err)
	}
}

func TestDriveAndReleaseModes(t *testing.T) {
	pin := &MockPin{}
	b := NewBitBang(pin)

	if err := b.Drive(); err != nil {
		t.Fatal(err)
	}
	if pin.Mode != "output" {
		t.Errorf("mode after Drive = %q, want output", pin.Mode)
	}
	if len(pin.Driven) != 1 || pin.Driven[0] {
		t.Errorf("Drive should idle the line low, drove %v", pin.Driven)
	}

	if err := b.Release(); err != nil {
		t.Fatal(err)
	}
	if pin.Mode != "input-pullup" {
		t.Errorf("mode after Release = %q, want input-pullup", pin.Mode)
	}
}

func TestLineSensing(t *testing.T) {
	pin := &MockPin{Samples: []bool{false, true}}
	b := NewBitBang(pin)

	holding, err := b.ServoHoldingLine()
	if err != nil || !holding {
		t.Errorf("ServoHoldingLine over a low line = %v, %v; want true", holding, err)
	}
	up, err := b.LinePulledUp()
	if err != nil || !up {
		t.Errorf("LinePulledUp over a high line = %v, %v; want true", up, err)
	}
}
