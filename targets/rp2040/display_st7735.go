//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"adalight/core"

	"tinygo.org/x/drivers/st7735"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// st7735Pins is the wiring of the status screen
type st7735Pins struct {
	sck, sdo, dc, cs, rst, bl machine.Pin
	freq                      uint32
	width, height             int16
}

// st7735Presenter draws the edge readout on an ST7735 TFT with tinyfont
type st7735Presenter struct {
	pins       st7735Pins
	dev        st7735.Device
	ready      bool
	background color.RGBA
	font       tinyfont.Fonter
}

func newST7735Presenter(pins st7735Pins) *st7735Presenter {
	return &st7735Presenter{
		pins: pins,
		font: &freemono.Regular9pt7b,
	}
}

func (p *st7735Presenter) Begin() {
	spi := machine.SPI0
	err := spi.Configure(machine.SPIConfig{
		Frequency: p.pins.freq,
		SCK:       p.pins.sck,
		SDO:       p.pins.sdo,
	})
	if err != nil {
		core.DebugPrintln("st7735: spi configure failed: " + err.Error())
		return
	}

	p.dev = st7735.New(spi, p.pins.rst, p.pins.dc, p.pins.cs, p.pins.bl)
	p.dev.Configure(st7735.Config{
		Width:  p.pins.width,
		Height: p.pins.height,
		Model:  st7735.GREENTAB,
	})
	p.ready = true
}

func (p *st7735Presenter) Clear() {
	if !p.ready {
		return
	}
	p.dev.FillScreen(p.background)
}

func (p *st7735Presenter) SetOrientation(o core.Orientation) {
	if !p.ready {
		return
	}
	// Orientation values match the driver's quarter-turn numbering
	p.dev.SetRotation(st7735.Rotation(o))
}

func (p *st7735Presenter) SetBackgroundColor(c core.RGB565) {
	p.background = c.RGBA()
}

func (p *st7735Presenter) SetFont(f core.Font) {
	switch f {
	case core.FontSmall:
		p.font = &proggy.TinySZ8pt7b
	case core.FontBold:
		p.font = &freemono.Bold9pt7b
	default:
		p.font = &freemono.Regular9pt7b
	}
}

// DrawText blanks the previous label area before writing, since labels
// are redrawn every frame in a new colour
func (p *st7735Presenter) DrawText(x, y int16, text string, c core.RGB565) {
	if !p.ready {
		return
	}
	_, width := tinyfont.LineWidth(p.font, text)
	height := int16(p.font.GetYAdvance())
	p.dev.FillRectangle(x, y-height+2, int16(width), height, p.background)
	tinyfont.WriteLine(&p.dev, p.font, x, y, text, c.RGBA())
}
