package hitecd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTargetClamps(t *testing.T) {
	s, f := newTestServo(t)

	require.NoError(t, s.WriteTargetQuarterMicros(100))
	assert.Equal(t, uint16(MinQuarterMicros), f.regs[RegTargetPoint.Address])

	require.NoError(t, s.WriteTargetQuarterMicros(99999))
	assert.Equal(t, uint16(MaxQuarterMicros), f.regs[RegTargetPoint.Address])

	require.NoError(t, s.WriteTargetMicroseconds(1500))
	assert.Equal(t, uint16(6000), f.regs[RegTargetPoint.Address])
}

func TestMoveAndSettleConverges(t *testing.T) {
	s, f := newTestServo(t)
	f.positions = []uint16{5000, 5600, 5995, 6000}

	pos, settled, err := s.MoveAndSettle(6000)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.Equal(t, 6000, pos)
	assert.Equal(t, uint16(6000), f.regs[RegTargetPoint.Address])
}

func TestMoveAndSettleBoundary(t *testing.T) {
	s, f := newTestServo(t)

	// A 9-unit step is within the settle window; a 10-unit step is not.
	f.positions = []uint16{5000, 5010, 5019}
	pos, settled, err := s.MoveAndSettle(6000)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.Equal(t, 5019, pos)
}

func TestMoveAndSettleTimesOut(t *testing.T) {
	s, f := newTestServo(t)
	f.oscillate = true

	// A servo that never stops moving is a degraded success, not an
	// error: the ceiling expires and the last position is reported.
	pos, settled, err := s.MoveAndSettle(6000)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.GreaterOrEqual(t, pos, 4000)
}

func TestGentleMovementSavesAndRestores(t *testing.T) {
	s, f := newTestServo(t)

	before := map[byte]uint16{}
	for _, r := range []Register{RegAngleLeft, RegAngleCenter, RegAngleRight, RegSpeed, RegPowerLimit} {
		before[r.Address] = f.regs[r.Address]
	}

	require.NoError(t, s.EnterGentleMovement())
	assert.Equal(t, uint16(gentleAngleLeft), f.regs[RegAngleLeft.Address])
	assert.Equal(t, uint16(gentleAngleRight), f.regs[RegAngleRight.Address])
	assert.Equal(t, uint16(gentleSpeedRaw), f.regs[RegSpeed.Address])
	assert.Equal(t, uint16(gentlePowerRaw), f.regs[RegPowerLimit.Address])

	require.NoError(t, s.ExitGentleMovement())
	for addr, want := range before {
		assert.Equal(t, want, f.regs[addr], "register 0x%02X not restored", addr)
	}
}

func TestGentleMovementIdempotent(t *testing.T) {
	s, f := newTestServo(t)

	// Exiting without entering touches nothing.
	require.NoError(t, s.ExitGentleMovement())
	assert.Empty(t, f.writes)

	speedBefore := f.regs[RegSpeed.Address]
	require.NoError(t, s.EnterGentleMovement())
	// A second enter must not re-snapshot the gentle values as if they
	// were the servo's own settings.
	require.NoError(t, s.EnterGentleMovement())
	require.NoError(t, s.ExitGentleMovement())
	assert.Equal(t, speedBefore, f.regs[RegSpeed.Address])
}

func TestMoveGentlyAutoEnters(t *testing.T) {
	s, f := newTestServo(t)

	f.positions = []uint16{8000, 8001}
	_, err := s.MoveGently(8000)
	require.NoError(t, err)
	assert.Equal(t, uint16(gentleSpeedRaw), f.regs[RegSpeed.Address])

	require.NoError(t, s.ExitGentleMovement())
	assert.NotEqual(t, uint16(gentleSpeedRaw), f.regs[RegSpeed.Address])
}

func TestMoveGentlySettlesOnSlowCreep(t *testing.T) {
	s, f := newTestServo(t)
	require.NoError(t, s.EnterGentleMovement())

	// Consecutive samples exactly 3 apart count as settled; a servo
	// creeping at that rate must stop being polled at the second sample.
	f.positions = []uint16{8000, 8003, 8006, 8009}
	pos, err := s.MoveGently(16000)
	require.NoError(t, err)
	assert.Equal(t, 8003, pos)
}

func TestMoveGently(t *testing.T) {
	s, f := newTestServo(t)
	require.NoError(t, s.EnterGentleMovement())

	// The servo stalls short of the commanded angle, as at an end stop.
	f.positions = []uint16{9000, 11800, 11801}
	pos, err := s.MoveGently(16000)
	require.NoError(t, err)
	assert.Equal(t, 11801, pos)

	// Full-envelope mapping: left edge of the gentle envelope is the
	// minimum pulse, right edge the maximum.
	require.NoError(t, s.WriteTargetQuarterMicros(0)) // reset register
	f.positions = []uint16{50, 50}
	_, err = s.MoveGently(gentleAngleLeft)
	require.NoError(t, err)
	assert.Equal(t, uint16(MinQuarterMicros), f.regs[RegTargetPoint.Address])
}
