// Package linux provides strip and presenter backends for running the
// receiver on a Linux single-board computer.
package linux

import (
	"image"
	"image/color"

	"adalight/protocol"

	"periph.io/x/conn/v3/display"
)

// DrawerStrip pushes the frame buffer through any periph display.Drawer,
// treating the strip as an N×1 image
type DrawerStrip struct {
	drawer display.Drawer
	buf    *protocol.FrameBuffer
	img    *image.NRGBA
}

func NewDrawerStrip(drawer display.Drawer) *DrawerStrip {
	return &DrawerStrip{drawer: drawer}
}

func (s *DrawerStrip) Configure(buf *protocol.FrameBuffer, count int) error {
	s.buf = buf
	s.img = image.NewNRGBA(image.Rect(0, 0, count, 1))
	return nil
}

func (s *DrawerStrip) Flush() error {
	frameImage(s.buf, s.img)
	return s.drawer.Draw(s.drawer.Bounds(), s.img, image.Point{})
}

// Close turns the LEDs off and releases the device
func (s *DrawerStrip) Close() error {
	return s.drawer.Halt()
}

func (s *DrawerStrip) String() string {
	return s.drawer.String()
}

// frameImage copies the first img-width pixels of fb into img
func frameImage(fb *protocol.FrameBuffer, img *image.NRGBA) {
	for x := 0; x < img.Rect.Dx(); x++ {
		p := fb.At(x)
		img.SetNRGBA(x, 0, color.NRGBA{R: p.R, G: p.G, B: p.B, A: 255})
	}
}
