package config

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"adalight/core"
	"adalight/protocol"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Strip backends
const (
	BackendWS2812 = "ws2812"
	BackendPIO    = "pio"
)

// Config describes one adalight device: its strip, its status display and
// the LEDs sampled for the edge readout
type Config struct {
	LEDCount    int               `json:"led_count" yaml:"led_count" toml:"led_count"`
	Baud        int               `json:"baud" yaml:"baud" toml:"baud"`
	Edges       EdgeConfig        `json:"edges" yaml:"edges" toml:"edges"`
	Labels      LabelConfig       `json:"labels" yaml:"labels" toml:"labels"`
	Strip       StripConfig       `json:"strip" yaml:"strip" toml:"strip"`
	Display     DisplayConfig     `json:"display" yaml:"display" toml:"display"`
	PowerOnTest PowerOnTestConfig `json:"power_on_test" yaml:"power_on_test" toml:"power_on_test"`
	Debug       bool              `json:"debug" yaml:"debug" toml:"debug"`
}

// EdgeConfig holds the LED index sampled for each screen edge.
// Pointers distinguish "unset" from index 0.
type EdgeConfig struct {
	Left   *int `json:"left" yaml:"left" toml:"left"`
	Right  *int `json:"right" yaml:"right" toml:"right"`
	Top    *int `json:"top" yaml:"top" toml:"top"`
	Bottom *int `json:"bottom" yaml:"bottom" toml:"bottom"`
}

type LabelConfig struct {
	Left   string `json:"left" yaml:"left" toml:"left"`
	Right  string `json:"right" yaml:"right" toml:"right"`
	Top    string `json:"top" yaml:"top" toml:"top"`
	Bottom string `json:"bottom" yaml:"bottom" toml:"bottom"`
}

// StripConfig selects the LED output
type StripConfig struct {
	Pin     string `json:"pin" yaml:"pin" toml:"pin"`
	Backend string `json:"backend" yaml:"backend" toml:"backend"` // ws2812 or pio
	PIO     int    `json:"pio" yaml:"pio" toml:"pio"`             // -1 picks a free block
	SM      int    `json:"sm" yaml:"sm" toml:"sm"`                // -1 picks a free state machine

	// Linux only: SPI device for nrzled ("" picks the first) and bit rate
	SPIDevice string `json:"spi_device" yaml:"spi_device" toml:"spi_device"`
	SPIFreqHz int64  `json:"spi_freq_hz" yaml:"spi_freq_hz" toml:"spi_freq_hz"`
}

// DisplayConfig describes the optional ST7735 status screen
type DisplayConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Width      int16  `json:"width" yaml:"width" toml:"width"`
	Height     int16  `json:"height" yaml:"height" toml:"height"`
	Rotation   int    `json:"rotation" yaml:"rotation" toml:"rotation"` // degrees
	SCK        string `json:"sck" yaml:"sck" toml:"sck"`
	SDO        string `json:"sdo" yaml:"sdo" toml:"sdo"`
	DC         string `json:"dc" yaml:"dc" toml:"dc"`
	CS         string `json:"cs" yaml:"cs" toml:"cs"`
	RST        string `json:"rst" yaml:"rst" toml:"rst"`
	BL         string `json:"bl" yaml:"bl" toml:"bl"`
	SPIFreqHz  uint32 `json:"spi_freq_hz" yaml:"spi_freq_hz" toml:"spi_freq_hz"`
	Background string `json:"background" yaml:"background" toml:"background"` // #rrggbb
	Font       string `json:"font" yaml:"font" toml:"font"`                   // default, small, bold
}

type PowerOnTestConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	HoldMS  int  `json:"hold_ms" yaml:"hold_ms" toml:"hold_ms"`
}

// Load parses a JSON configuration and fills in defaults
func Load(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	if config.LEDCount == 0 {
		config.LEDCount = 60
	}
	if config.Baud == 0 {
		config.Baud = 115200
	}

	// Default edges: first LED of each quarter of the strip
	quarter := config.LEDCount / 4
	setDefaultIndex(&config.Edges.Left, 0)
	setDefaultIndex(&config.Edges.Right, quarter)
	setDefaultIndex(&config.Edges.Top, 2*quarter)
	setDefaultIndex(&config.Edges.Bottom, 3*quarter)

	if config.Labels.Left == "" {
		config.Labels.Left = "LEFT"
	}
	if config.Labels.Right == "" {
		config.Labels.Right = "RIGHT"
	}
	if config.Labels.Top == "" {
		config.Labels.Top = "TOP"
	}
	if config.Labels.Bottom == "" {
		config.Labels.Bottom = "BOTTOM"
	}

	if config.Strip.Pin == "" {
		config.Strip.Pin = "gpio16"
	}
	if config.Strip.Backend == "" {
		config.Strip.Backend = BackendWS2812
	}
	if config.Strip.SPIFreqHz == 0 {
		config.Strip.SPIFreqHz = 2_500_000
	}

	if config.Display.Width == 0 {
		config.Display.Width = 160
	}
	if config.Display.Height == 0 {
		config.Display.Height = 128
	}
	if config.Display.SPIFreqHz == 0 {
		config.Display.SPIFreqHz = 8_000_000
	}
	if config.Display.Background == "" {
		config.Display.Background = "#000000"
	}
	if config.Display.Font == "" {
		config.Display.Font = "default"
	}

	if config.PowerOnTest.HoldMS == 0 {
		config.PowerOnTest.HoldMS = 500
	}
}

func setDefaultIndex(p **int, v int) {
	if *p == nil {
		*p = &v
	}
}

// DefaultConfig returns the configuration of the reference board:
// 60 LEDs on GPIO16 and an ST7735 on SPI0
func DefaultConfig() *Config {
	config := &Config{
		Display: DisplayConfig{
			Enabled:  true,
			Rotation: 90,
			SCK:      "gpio18",
			SDO:      "gpio19",
			DC:       "gpio20",
			CS:       "gpio17",
			RST:      "gpio21",
			BL:       "gpio22",
		},
		PowerOnTest: PowerOnTestConfig{Enabled: true},
	}
	applyDefaults(config)
	return config
}

// Validate checks the values a device cannot run without
func (c *Config) Validate() error {
	if c.LEDCount < 1 || c.LEDCount > protocol.MaxLEDs {
		return invalid("led_count " + strconv.Itoa(c.LEDCount) + " out of range")
	}
	if c.Baud <= 0 {
		return invalid("baud must be positive")
	}
	if err := c.EdgeIndices().Validate(c.LEDCount); err != nil {
		return invalid(err.Error())
	}
	switch c.Strip.Backend {
	case BackendWS2812, BackendPIO:
	default:
		return invalid("unknown strip backend " + strconv.Quote(c.Strip.Backend))
	}
	if c.Strip.PIO < -1 || c.Strip.PIO > 1 || c.Strip.SM < -1 || c.Strip.SM > 3 {
		return invalid("pio/sm out of range")
	}
	if _, err := PinNumber(c.Strip.Pin); err != nil {
		return err
	}
	if c.Display.Enabled {
		for _, pin := range []string{c.Display.SCK, c.Display.SDO, c.Display.DC, c.Display.CS, c.Display.RST, c.Display.BL} {
			if _, err := PinNumber(pin); err != nil {
				return err
			}
		}
	}
	if _, err := c.Orientation(); err != nil {
		return err
	}
	if _, err := ParseColor(c.Display.Background); err != nil {
		return err
	}
	if _, err := ParseFont(c.Display.Font); err != nil {
		return err
	}
	if c.PowerOnTest.HoldMS < 0 {
		return invalid("power_on_test.hold_ms must not be negative")
	}
	return nil
}

func invalid(msg string) error {
	return errors.Join(ErrInvalidConfig, errors.New(msg))
}

// EdgeIndices returns the sampled positions in core order
func (c *Config) EdgeIndices() core.EdgeIndices {
	var idx core.EdgeIndices
	for e, p := range [core.EdgeCount]*int{c.Edges.Left, c.Edges.Right, c.Edges.Top, c.Edges.Bottom} {
		if p == nil {
			idx[e] = -1
			continue
		}
		idx[e] = *p
	}
	return idx
}

// Orientation converts the configured rotation in degrees
func (c *Config) Orientation() (core.Orientation, error) {
	switch c.Display.Rotation {
	case 0:
		return core.Rotation0, nil
	case 90:
		return core.Rotation90, nil
	case 180:
		return core.Rotation180, nil
	case 270:
		return core.Rotation270, nil
	}
	return 0, invalid("rotation must be 0, 90, 180 or 270")
}

// Controller builds the control loop settings. Call Validate first.
func (c *Config) Controller() core.ControllerConfig {
	orientation, _ := c.Orientation()
	background, _ := ParseColor(c.Display.Background)
	font, _ := ParseFont(c.Display.Font)

	width, height := c.Display.Width, c.Display.Height
	if orientation == core.Rotation90 || orientation == core.Rotation270 {
		// Panel dimensions are given unrotated
		width, height = height, width
	}

	return core.ControllerConfig{
		LEDCount:       c.LEDCount,
		Edges:          c.EdgeIndices(),
		Labels:         [core.EdgeCount]string{c.Labels.Left, c.Labels.Right, c.Labels.Top, c.Labels.Bottom},
		LabelPositions: core.DefaultLabelPositions(width, height),
		StatusPosition: core.TextPosition{X: 4, Y: height / 2},
		Orientation:    orientation,
		Background:     background,
		Font:           font,
		PowerOnTest:    c.PowerOnTest.Enabled,
		PowerOnHold:    time.Duration(c.PowerOnTest.HoldMS) * time.Millisecond,
	}
}

// ParseColor reads a #rrggbb colour into display format
func ParseColor(s string) (core.RGB565, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, invalid("colour " + strconv.Quote(s) + " is not #rrggbb")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, invalid("colour " + strconv.Quote(s) + " is not #rrggbb")
	}
	return core.PackRGB565(protocol.Pixel{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}), nil
}

// ParseFont maps a font name onto the presenter font set
func ParseFont(s string) (core.Font, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return core.FontDefault, nil
	case "small":
		return core.FontSmall, nil
	case "bold":
		return core.FontBold, nil
	}
	return 0, invalid("unknown font " + strconv.Quote(s))
}

// MaxPin is the highest GPIO number on the supported boards
const MaxPin = 47

// PinNumber parses a pin name of the form "gpio16" or "16"
func PinNumber(name string) (uint8, error) {
	digits := strings.TrimPrefix(strings.ToLower(name), "gpio")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > MaxPin {
		return 0, invalid("bad pin " + strconv.Quote(name))
	}
	return uint8(n), nil
}
