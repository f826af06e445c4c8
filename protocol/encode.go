package protocol

// FrameSize returns the encoded size of a frame carrying n pixels
func FrameSize(n int) int {
	return len(Magic) + HeaderSize + n*PixelSize
}

// AppendFrame appends a complete magic+header+payload frame to dst.
// The header announces len(pixels) LEDs.
func AppendFrame(dst []byte, pixels []Pixel) []byte {
	h := NewHeader(len(pixels))
	dst = append(dst, Magic[:]...)
	dst = append(dst, h.Hi, h.Lo, h.Checksum)
	for _, p := range pixels {
		dst = append(dst, p.R, p.G, p.B)
	}
	return dst
}

// EncodeFrame returns a newly allocated encoded frame
func EncodeFrame(pixels []Pixel) []byte {
	return AppendFrame(make([]byte, 0, FrameSize(len(pixels))), pixels)
}
