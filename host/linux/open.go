package linux

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// StripOptions selects the output device
type StripOptions struct {
	NumPixels int
	SPIDevice string // "" picks the first SPI port
	SPIFreqHz int64
	Console   bool // render to the terminal instead of SPI
}

// OpenStrip returns a strip on an nrzled SPI encoder. Without a usable SPI
// port it falls back to drawing the strip on the console.
func OpenStrip(opts StripOptions) (*DrawerStrip, error) {
	drawer, err := openDrawer(opts)
	if err != nil {
		return nil, err
	}
	return NewDrawerStrip(drawer), nil
}

func openDrawer(opts StripOptions) (display.Drawer, error) {
	if opts.Console {
		return screen.New(opts.NumPixels), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(opts.SPIDevice)
	if err != nil {
		log.Warn().Err(err).Str("spi", opts.SPIDevice).Msg("no SPI port; drawing the strip on the console")
		return screen.New(opts.NumPixels), nil
	}

	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: opts.NumPixels,
		Channels:  3,
		Freq:      physic.Frequency(opts.SPIFreqHz) * physic.Hertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("nrzled on %s: %w", port, err)
	}

	return startDark(d, port)
}

// startDark blanks d before first use. The port is released when that
// fails since nothing else will own it.
func startDark(d display.Drawer, port io.Closer) (display.Drawer, error) {
	if err := d.Halt(); err != nil {
		port.Close()
		return nil, fmt.Errorf("blank %s: %w", d, err)
	}
	return d, nil
}
