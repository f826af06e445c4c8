//go:build rp2040 || rp2350

package main

import (
	_ "embed"
	"machine"
	"time"

	"adalight/config"
	"adalight/core"
	"adalight/targets/pio"
)

//go:embed board.json
var boardJSON []byte

var (
	controller *core.Controller

	// Debug counters
	panics uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	cfg := loadBoardConfig()

	// Initialize USB CDC immediately
	InitUSB(cfg.Baud)

	if cfg.Debug {
		InitDebugUART()
	}

	strip, err := newStrip(cfg)
	if err != nil {
		core.DebugPrintln("adalight: strip: " + err.Error())
		halt()
	}

	var display core.Presenter
	if cfg.Display.Enabled {
		display = newST7735Presenter(st7735Pins{
			sck:    pin(cfg.Display.SCK),
			sdo:    pin(cfg.Display.SDO),
			dc:     pin(cfg.Display.DC),
			cs:     pin(cfg.Display.CS),
			rst:    pin(cfg.Display.RST),
			bl:     pin(cfg.Display.BL),
			freq:   cfg.Display.SPIFreqHz,
			width:  cfg.Display.Width,
			height: cfg.Display.Height,
		})
	}

	port := usbPort{}
	controller, err = core.NewController(cfg.Controller(), port, strip, display)
	if err != nil {
		core.DebugPrintln("adalight: " + err.Error())
		halt()
	}

	if err := controller.Start(port); err != nil {
		core.DebugPrintln("adalight: start: " + err.Error())
		halt()
	}

	// Main loop - the USB reader never fails, so Run only returns on panic
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					core.DebugPrintln("adalight: recovered from panic")
				}
			}()
			controller.Run()
		}()
	}
}

// loadBoardConfig parses the embedded board description, falling back to
// the reference board when it is missing or invalid
func loadBoardConfig() *config.Config {
	cfg, err := config.Load(boardJSON)
	if err != nil {
		return config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// newStrip builds the configured strip backend
func newStrip(cfg *config.Config) (core.StripDriver, error) {
	if cfg.Strip.Backend == config.BackendPIO {
		return pio.NewWS2812PIO(pin(cfg.Strip.Pin), cfg.Strip.PIO, cfg.Strip.SM)
	}
	return newWS2812Strip(pin(cfg.Strip.Pin)), nil
}

// pin converts a validated pin name
func pin(name string) machine.Pin {
	n, _ := config.PinNumber(name)
	return machine.Pin(n)
}

// halt parks the firmware after a fatal setup error
func halt() {
	for {
		time.Sleep(time.Second)
	}
}
