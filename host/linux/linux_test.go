package linux

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"adalight/core"
	"adalight/protocol"
)

// fakeDrawer records the last image drawn
type fakeDrawer struct {
	bounds  image.Rectangle
	last    *image.NRGBA
	halted  bool
	haltErr error
}

func (d *fakeDrawer) String() string          { return "fake" }
func (d *fakeDrawer) Halt() error             { d.halted = true; return d.haltErr }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return d.bounds }
func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := src.(*image.NRGBA)
	d.last = image.NewNRGBA(img.Rect)
	copy(d.last.Pix, img.Pix)
	return nil
}

type fakeCloser struct{ closed int }

func (c *fakeCloser) Close() error { c.closed++; return nil }

func TestStartDark(t *testing.T) {
	port := &fakeCloser{}
	d := &fakeDrawer{bounds: image.Rect(0, 0, 4, 1)}
	got, err := startDark(d, port)
	if err != nil || got != d {
		t.Fatalf("startDark = %v, %v", got, err)
	}
	if !d.halted || port.closed != 0 {
		t.Errorf("halted=%v closed=%d, want halted and port open", d.halted, port.closed)
	}

	errBus := errors.New("spi: bus error")
	d = &fakeDrawer{bounds: image.Rect(0, 0, 4, 1), haltErr: errBus}
	if _, err := startDark(d, port); !errors.Is(err, errBus) {
		t.Errorf("Halt failure: got %v", err)
	}
	if port.closed != 1 {
		t.Errorf("Port closed %d times after Halt failure, want 1", port.closed)
	}
}

func TestDrawerStrip(t *testing.T) {
	fb, _ := protocol.NewFrameBuffer(3)
	fb.Set(0, 255, 0, 0)
	fb.Set(2, 1, 2, 3)

	drawer := &fakeDrawer{bounds: image.Rect(0, 0, 3, 1)}
	strip := NewDrawerStrip(drawer)
	if err := strip.Configure(fb, fb.Len()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := strip.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []color.NRGBA{{255, 0, 0, 255}, {0, 0, 0, 255}, {1, 2, 3, 255}}
	for x, w := range want {
		if got := drawer.last.NRGBAAt(x, 0); got != w {
			t.Errorf("Pixel %d = %v, want %v", x, got, w)
		}
	}

	if err := strip.Close(); err != nil || !drawer.halted {
		t.Errorf("Close did not halt the drawer: %v", err)
	}
}

func TestLogPresenter(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPresenter(zerolog.New(&buf))

	p.DrawText(4, 64, "LEFT", core.RGB565(0xF800))
	p.DrawText(4, 64, "LEFT", core.RGB565(0xF800)) // unchanged, not logged
	p.DrawText(4, 64, "LEFT", core.RGB565White)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Logged %d lines, want 2: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Bad log line %q: %v", lines[0], err)
	}
	if entry["label"] != "LEFT" || entry["color"] != "#ff0000" || entry["component"] != "presenter" {
		t.Errorf("Log entry = %v", entry)
	}

	// Clear forgets the labels so the next draw is logged
	buf.Reset()
	p.Clear()
	p.DrawText(4, 64, "LEFT", core.RGB565White)
	if !strings.Contains(buf.String(), `"color":"#ffffff"`) {
		t.Errorf("Draw after clear not logged: %q", buf.String())
	}
}
