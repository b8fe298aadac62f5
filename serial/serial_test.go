package serial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/scope/serial"
)

// pack is the board-side inverse of Decode: four 10-bit samples into
// five bytes, little-endian bit order.
func pack(s [4]uint16) []byte {
	return []byte{
		byte(s[0]),
		byte(s[0]>>8)&0x03 | byte(s[1])<<2,
		byte(s[1]>>6)&0x0F | byte(s[2])<<4,
		byte(s[2]>>4)&0x3F | byte(s[3])<<6,
		byte(s[3] >> 2),
	}
}

func TestDecode(t *testing.T) {
	tests := [][4]uint16{
		{0, 0, 0, 0},
		{1023, 1023, 1023, 1023},
		{1, 2, 3, 4},
		{512, 256, 128, 64},
		{341, 682, 1, 1022},
		{1023, 0, 1023, 0},
	}
	for _, samples := range tests {
		assert.Equal(t, samples, serial.Decode(pack(samples)))
	}
}

func TestDecodeKnownPacket(t *testing.T) {
	// 0b1100000011, 0b0000110000, 0b1100000011, 0b0000110000
	p := []byte{0x03, 0xC3, 0x30, 0x30, 0x0C}
	s := serial.Decode(p)
	assert.Equal(t, [4]uint16{0x303, 0x030, 0x303, 0x030}, s)
}
