//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"adalight/core"
	"adalight/protocol"

	"tinygo.org/x/drivers/ws2812"
)

// ws2812Strip bit-bangs the strip from the CPU
type ws2812Strip struct {
	pin    machine.Pin
	dev    ws2812.Device
	buf    *protocol.FrameBuffer
	colors []color.RGBA
}

func newWS2812Strip(pin machine.Pin) *ws2812Strip {
	return &ws2812Strip{pin: pin}
}

func (s *ws2812Strip) Configure(buf *protocol.FrameBuffer, count int) error {
	s.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.dev = ws2812.New(s.pin)
	s.buf = buf
	s.colors = make([]color.RGBA, count)
	return nil
}

// Flush sends the whole buffer with interrupts off; the bit timing does
// not survive a USB interrupt
func (s *ws2812Strip) Flush() error {
	for i := range s.colors {
		p := s.buf.At(i)
		s.colors[i] = color.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
	}

	var err error
	core.Critical(func() { err = s.dev.WriteColors(s.colors) })
	return err
}
