package core

import (
	"errors"

	"adalight/protocol"
)

// StripGroup drives several strips from the same frame buffer
type StripGroup []StripDriver

func (g StripGroup) Configure(buf *protocol.FrameBuffer, count int) error {
	for _, s := range g {
		if err := s.Configure(buf, count); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every strip, even after one fails
func (g StripGroup) Flush() error {
	var errs []error
	for _, s := range g {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PresenterGroup mirrors every call onto several presenters
type PresenterGroup []Presenter

func (g PresenterGroup) Begin() {
	for _, p := range g {
		p.Begin()
	}
}

func (g PresenterGroup) Clear() {
	for _, p := range g {
		p.Clear()
	}
}

func (g PresenterGroup) SetOrientation(o Orientation) {
	for _, p := range g {
		p.SetOrientation(o)
	}
}

func (g PresenterGroup) SetBackgroundColor(c RGB565) {
	for _, p := range g {
		p.SetBackgroundColor(c)
	}
}

func (g PresenterGroup) SetFont(f Font) {
	for _, p := range g {
		p.SetFont(f)
	}
}

func (g PresenterGroup) DrawText(x, y int16, text string, c RGB565) {
	for _, p := range g {
		p.DrawText(x, y, text, c)
	}
}
