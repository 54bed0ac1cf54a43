package hitecd

import "fmt"

// Wire framing constants. Requests open with 0x96, responses with 0x69;
// both checksums are the modulo-256 sum of every frame byte after the
// leader, excluding the checksum itself.
const (
	requestLeader  = 0x96
	responseLeader = 0x69

	readLength  = 0x00
	writeLength = 0x02

	responseFrameLen = 7
)

// checksum returns the modulo-256 sum of the given bytes.
func checksum(bs ...byte) byte {
	var sum byte
	for _, b := range bs {
		sum += b
	}
	return sum
}

// writeFrame builds the 7-byte register write request.
func writeFrame(addr byte, val uint16) []byte {
	low := byte(val)
	high := byte(val >> 8)
	return []byte{
		requestLeader, 0x00, addr, writeLength, low, high,
		checksum(0x00, addr, writeLength, low, high),
	}
}

// readRequestFrame builds the 5-byte register read request.
func readRequestFrame(addr byte) []byte {
	return []byte{
		requestLeader, 0x00, addr, readLength,
		checksum(0x00, addr, readLength),
	}
}

// parseResponse validates a 7-byte read response and extracts the value.
// The second byte is echoed into the checksum but otherwise has no known
// meaning.
func parseResponse(addr byte, resp []byte) (uint16, error) {
	if len(resp) != responseFrameLen {
		return 0, fmt.Errorf("short response (%d bytes): %w", len(resp), ErrCorrupt)
	}
	if resp[0] != responseLeader {
		return 0, fmt.Errorf("bad response leader 0x%02X: %w", resp[0], ErrCorrupt)
	}
	if resp[2] != addr {
		return 0, fmt.Errorf("response echoes register 0x%02X, want 0x%02X: %w", resp[2], addr, ErrCorrupt)
	}
	if resp[3] != writeLength {
		return 0, fmt.Errorf("bad response length byte 0x%02X: %w", resp[3], ErrCorrupt)
	}
	if resp[6] != checksum(resp[1], resp[2], resp[3], resp[4], resp[5]) {
		return 0, fmt.Errorf("response checksum mismatch: %w", ErrCorrupt)
	}
	return uint16(resp[4]) | uint16(resp[5])<<8, nil
}
