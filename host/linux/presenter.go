package linux

import (
	"fmt"

	"github.com/rs/zerolog"

	"adalight/core"
)

// LogPresenter reports the edge readout through zerolog instead of a
// screen. Unchanged labels are not logged again.
type LogPresenter struct {
	logger zerolog.Logger
	font   core.Font
	last   map[string]core.RGB565
}

func NewLogPresenter(logger zerolog.Logger) *LogPresenter {
	return &LogPresenter{
		logger: logger.With().Str("component", "presenter").Logger(),
		last:   map[string]core.RGB565{},
	}
}

func (p *LogPresenter) Begin() {
	p.logger.Info().Msg("presenter ready")
}

func (p *LogPresenter) Clear() {
	clear(p.last)
	p.logger.Debug().Msg("clear")
}

func (p *LogPresenter) SetOrientation(o core.Orientation) {
	p.logger.Debug().Int("degrees", int(o)*90).Msg("orientation")
}

func (p *LogPresenter) SetBackgroundColor(c core.RGB565) {
	p.logger.Debug().Str("color", hexColor(c)).Msg("background")
}

func (p *LogPresenter) SetFont(f core.Font) {
	p.font = f
}

func (p *LogPresenter) DrawText(x, y int16, text string, c core.RGB565) {
	if prev, ok := p.last[text]; ok && prev == c {
		return
	}
	p.last[text] = c
	p.logger.Info().
		Str("label", text).
		Str("color", hexColor(c)).
		Int16("x", x).
		Int16("y", y).
		Msg("edge")
}

// hexColor formats the expanded colour as #rrggbb
func hexColor(c core.RGB565) string {
	px := c.Pixel()
	return fmt.Sprintf("#%02x%02x%02x", px.R, px.G, px.B)
}
