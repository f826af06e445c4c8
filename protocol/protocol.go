// Package protocol implements the Adalight serial colour protocol
package protocol

// Version represents the firmware version
const Version = "0.1.0"

// Protocol constants
const (
	ChecksumSeed = 0x55  // XORed into hi^lo to form the header checksum
	HeaderSize   = 3     // hi, lo, chk
	PixelSize    = 3     // r, g, b
	MaxLEDs      = 65536 // Header encodes count-1 in 16 bits
)

// Magic is the frame start marker sent by the host before every header
var Magic = [3]byte{'A', 'd', 'a'}

// Handshake is written once by the device after the serial line opens
const Handshake = "Ada\n"

// HeaderChecksum returns the checksum byte expected for a header
func HeaderChecksum(hi, lo uint8) uint8 {
	return hi ^ lo ^ ChecksumSeed
}

// Header is the 3-byte envelope that follows the magic word
type Header struct {
	Hi       uint8
	Lo       uint8
	Checksum uint8
}

// NewHeader builds a valid header announcing count LEDs
func NewHeader(count int) Header {
	n := uint16(count - 1)
	hi := uint8(n >> 8)
	lo := uint8(n)
	return Header{Hi: hi, Lo: lo, Checksum: HeaderChecksum(hi, lo)}
}

// Valid reports whether the checksum byte matches hi and lo
func (h Header) Valid() bool {
	return h.Checksum == HeaderChecksum(h.Hi, h.Lo)
}

// Count returns the LED count announced by the header.
// The decoder never uses it to size the payload.
func (h Header) Count() int {
	return (int(h.Hi)<<8 | int(h.Lo)) + 1
}
