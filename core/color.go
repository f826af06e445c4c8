package core

import (
	"image/color"

	"adalight/protocol"
)

// RGB565 is a 16-bit packed colour (5 bits red, 6 bits green, 5 bits blue)
// as consumed by small TFT displays
type RGB565 uint16

// Common display colours
const (
	RGB565Black RGB565 = 0x0000
	RGB565White RGB565 = 0xFFFF
)

// PackRGB565 reduces an 8-bit-per-channel pixel to RGB565
func PackRGB565(p protocol.Pixel) RGB565 {
	r := (uint16(p.R) >> 3) & 0x1F
	g := (uint16(p.G) >> 2) & 0x3F
	b := (uint16(p.B) >> 3) & 0x1F
	return RGB565(r<<11 | g<<5 | b)
}

// Pixel expands the packed colour back to 8 bits per channel
func (c RGB565) Pixel() protocol.Pixel {
	r := uint8(c>>11) & 0x1F
	g := uint8(c>>5) & 0x3F
	b := uint8(c) & 0x1F

	// Replicate high bits into the low bits so 0x1F maps to 0xFF
	return protocol.Pixel{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
	}
}

// RGBA converts the packed colour for drivers that take color.RGBA
func (c RGB565) RGBA() color.RGBA {
	p := c.Pixel()
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
}

// Normalize scales a colour so its brightest channel becomes 255 while the
// channel ratios are kept. Black stays black.
func Normalize(p protocol.Pixel) protocol.Pixel {
	maxVal := p.R
	if p.G > maxVal {
		maxVal = p.G
	}
	if p.B > maxVal {
		maxVal = p.B
	}
	if maxVal == 0 {
		return protocol.Black
	}

	return protocol.Pixel{
		R: scaleChannel(p.R, maxVal),
		G: scaleChannel(p.G, maxVal),
		B: scaleChannel(p.B, maxVal),
	}
}

// scaleChannel computes c*255/maxVal truncated.
// Multiplying before dividing keeps c == maxVal exactly at 255.
func scaleChannel(c, maxVal uint8) uint8 {
	return uint8(float64(c) * 255 / float64(maxVal))
}
