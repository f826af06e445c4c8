package core

// Orientation is the display rotation in quarter turns
type Orientation uint8

const (
	Rotation0 Orientation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Font selects one of the fonts a presenter provides
type Font uint8

const (
	FontDefault Font = iota
	FontSmall
	FontBold
)

// Presenter is the abstract status display interface that core code uses.
// Glyph rendering and bus transactions are owned by the implementation.
type Presenter interface {
	// Begin initializes the display hardware
	Begin()

	// Clear fills the screen with the background colour
	Clear()

	// SetOrientation rotates the drawing surface
	SetOrientation(o Orientation)

	// SetBackgroundColor sets the colour used by Clear
	SetBackgroundColor(c RGB565)

	// SetFont selects the font used by DrawText
	SetFont(f Font)

	// DrawText draws text with its baseline starting at (x, y)
	DrawText(x, y int16, text string, c RGB565)
}

// TextPosition is a text anchor on the display
type TextPosition struct {
	X, Y int16
}

// NopPresenter is used when no display is fitted
type NopPresenter struct{}

func (NopPresenter) Begin()                                     {}
func (NopPresenter) Clear()                                     {}
func (NopPresenter) SetOrientation(o Orientation)               {}
func (NopPresenter) SetBackgroundColor(c RGB565)                {}
func (NopPresenter) SetFont(f Font)                             {}
func (NopPresenter) DrawText(x, y int16, text string, c RGB565) {}

// DefaultLabelPositions spreads the four edge labels around a display of
// the given size: left and right on the middle row, top and bottom centred
func DefaultLabelPositions(width, height int16) [EdgeCount]TextPosition {
	const margin = 4
	const labelWidth = 48
	midY := height / 2
	return [EdgeCount]TextPosition{
		EdgeLeft:   {X: margin, Y: midY},
		EdgeRight:  {X: width - labelWidth - margin, Y: midY},
		EdgeTop:    {X: width/2 - labelWidth/2, Y: 16},
		EdgeBottom: {X: width/2 - labelWidth/2, Y: height - margin},
	}
}
