package protocol

import "errors"

var ErrInvalidLength = errors.New("invalid frame buffer length")

// Pixel is a single RGB colour as received on the wire
type Pixel struct {
	R, G, B uint8
}

// Black is the zero pixel
var Black = Pixel{}

// FrameBuffer holds exactly one frame of pixels.
// It has a single writer (the Decoder) and is not safe for concurrent use.
type FrameBuffer struct {
	pixels []Pixel
}

// NewFrameBuffer creates a zeroed frame buffer holding n pixels
func NewFrameBuffer(n int) (*FrameBuffer, error) {
	if n <= 0 || n > MaxLEDs {
		return nil, ErrInvalidLength
	}
	return &FrameBuffer{pixels: make([]Pixel, n)}, nil
}

// Len returns the fixed pixel count
func (f *FrameBuffer) Len() int {
	return len(f.pixels)
}

// Set stores a colour at index i
func (f *FrameBuffer) Set(i int, r, g, b uint8) {
	f.pixels[i] = Pixel{R: r, G: g, B: b}
}

// At returns the pixel at index i
func (f *FrameBuffer) At(i int) Pixel {
	return f.pixels[i]
}

// Pixels returns the backing slice. Callers must treat it as read-only.
func (f *FrameBuffer) Pixels() []Pixel {
	return f.pixels
}

// Fill sets every pixel to p
func (f *FrameBuffer) Fill(p Pixel) {
	for i := range f.pixels {
		f.pixels[i] = p
	}
}

// ClearAll zeroes every pixel
func (f *FrameBuffer) ClearAll() {
	f.Fill(Black)
}
