package hitecd

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rattrayalex/HitecDServo/links"
)

// regWrite records one register write the fake servo accepted.
type regWrite struct {
	addr byte
	val  uint16
}

// fakeServo emulates a D485 behind a MockLink: it parses request frames
// byte by byte, keeps a register map, and queues well-formed responses for
// reads.
type fakeServo struct {
	link *links.MockLink
	regs map[byte]uint16

	writes []regWrite

	// positions, if non-empty, is consumed by reads of the current
	// position register. oscillate makes the position jump around
	// forever instead.
	positions []uint16
	oscillate bool
	readCount int

	// mutateResponse, if set, can corrupt an outgoing response.
	mutateResponse func([]byte) []byte

	buf  []byte
	resp []byte
}

func newFakeServo() *fakeServo {
	f := &fakeServo{
		link: links.NewMockLink(),
		regs: map[byte]uint16{},
	}
	f.reset()
	f.link.WriteFunc = f.onByte
	f.link.ReadFunc = f.popResponseByte
	return f
}

// reset loads the factory-default register file.
func (f *fakeServo) reset() {
	f.regs = map[byte]uint16{
		RegModelNumber.Address:     ModelD485,
		RegCurrentPosition.Address: 8192,
		RegID.Address:              0,
		RegDirection.Address:       0,
		RegSpeed.Address:           10,
		RegDeadbandA.Address:       0,
		RegDeadbandB.Address:       5,
		RegDeadbandC.Address:       11,
		RegSoftStart.Address:       0x0001,
		RegFailSafe.Address:        0,
		RegOverload.Address:        100,
		RegPowerLimit.Address:      0x07D0,
		RegAngleLeft.Address:       3381,
		RegAngleCenter.Address:     8192,
		RegAngleRight.Address:      13002,
		RegSenseMagicA.Address:     0x2122,
		RegSenseMagicB.Address:     0x3233,
		RegSenseSlotA.Address:      0x2122,
		RegSenseSlotB.Address:      0x3233,
		RegSensitivity.Address:     4095,
	}
}

func (f *fakeServo) onByte(b byte) error {
	f.buf = append(f.buf, b)
	if f.buf[0] != requestLeader {
		f.buf = nil
		return nil
	}
	if len(f.buf) < 5 {
		return nil
	}
	switch f.buf[3] {
	case readLength:
		f.handleRead(f.buf[2])
		f.buf = nil
	case writeLength:
		if len(f.buf) == 7 {
			f.handleWrite(f.buf[2], uint16(f.buf[4])|uint16(f.buf[5])<<8)
			f.buf = nil
		}
	default:
		f.buf = nil
	}
	return nil
}

func (f *fakeServo) handleRead(addr byte) {
	val := f.regs[addr]
	if addr == RegCurrentPosition.Address {
		switch {
		case len(f.positions) > 0:
			val = f.positions[0]
			f.positions = f.positions[1:]
		case f.oscillate:
			val = 4000 + uint16(500*(f.readCount%2))
		}
		f.readCount++
	}
	resp := responseFor(addr, val)
	if f.mutateResponse != nil {
		resp = f.mutateResponse(resp)
	}
	f.resp = resp
}

func (f *fakeServo) handleWrite(addr byte, val uint16) {
	f.writes = append(f.writes, regWrite{addr, val})
	if addr == RegFactoryReset.Address && val == factoryResetKey {
		f.reset()
		return
	}
	f.regs[addr] = val
}

func (f *fakeServo) popResponseByte() (byte, error) {
	if len(f.resp) == 0 {
		return 0, links.ErrNoStartBit
	}
	b := f.resp[0]
	f.resp = f.resp[1:]
	return b, nil
}

// autoAdvance drives a mock clock forward in 100ms hops from a background
// goroutine so code sleeping on it makes progress.
func autoAdvance(mc *clock.Mock) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			default:
				time.Sleep(200 * time.Microsecond)
				mc.Add(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// newTestServo returns a servo attached to a fresh fake, sleeping on an
// auto-advanced mock clock so protocol delays cost no real time.
func newTestServo(t *testing.T) (*Servo, *fakeServo) {
	t.Helper()
	f := newFakeServo()
	s := New()
	mc := clock.NewMock()
	s.clock = mc
	t.Cleanup(autoAdvance(mc))
	if err := s.Attach(f.link); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return s, f
}
