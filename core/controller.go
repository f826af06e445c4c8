package core

import (
	"errors"
	"io"
	"time"

	"adalight/protocol"
)

var ErrNoStrip = errors.New("strip driver not configured")

// StatusWaiting is shown until the first frame arrives
const StatusWaiting = "Waiting for host"

// ControllerConfig holds everything the control loop needs at construction
type ControllerConfig struct {
	LEDCount       int
	Edges          EdgeIndices
	Labels         [EdgeCount]string
	LabelPositions [EdgeCount]TextPosition
	StatusPosition TextPosition
	Orientation    Orientation
	Background     RGB565
	Font           Font

	PowerOnTest bool
	PowerOnHold time.Duration
}

// ControllerStats combines decoder counters with collaborator failures
type ControllerStats struct {
	protocol.DecoderStats
	FlushErrors uint32
}

// Controller runs the receive loop: decode a frame, show the edge colours,
// push the frame to the strip, repeat
type Controller struct {
	cfg     ControllerConfig
	frame   *protocol.FrameBuffer
	decoder *protocol.Decoder
	strip   StripDriver
	display Presenter

	// sleep is swapped out by tests to skip the power-on holds
	sleep func(time.Duration)

	cleared      bool // one-shot screen clear done
	lengthWarned bool
	edges        EdgeSamples
	flushErrors  uint32
}

// NewController builds the frame buffer and decoder around src.
// A nil display means no status screen is fitted.
func NewController(cfg ControllerConfig, src io.ByteReader, strip StripDriver, display Presenter) (*Controller, error) {
	if strip == nil {
		return nil, ErrNoStrip
	}
	frame, err := protocol.NewFrameBuffer(cfg.LEDCount)
	if err != nil {
		return nil, err
	}
	if err := cfg.Edges.Validate(cfg.LEDCount); err != nil {
		return nil, err
	}
	if display == nil {
		display = NopPresenter{}
	}

	c := &Controller{
		cfg:     cfg,
		frame:   frame,
		decoder: protocol.NewDecoder(src, frame),
		strip:   strip,
		display: display,
		sleep:   time.Sleep,
	}
	c.decoder.SetHeaderCallback(c.onHeader)
	return c, nil
}

// Start prepares the collaborators and announces readiness to the host.
// It must be called once before Run.
func (c *Controller) Start(handshake io.Writer) error {
	c.display.Begin()
	c.display.SetOrientation(c.cfg.Orientation)
	c.display.SetBackgroundColor(c.cfg.Background)
	c.display.SetFont(c.cfg.Font)
	c.display.Clear()
	c.display.DrawText(c.cfg.StatusPosition.X, c.cfg.StatusPosition.Y, StatusWaiting, RGB565White)

	if err := c.strip.Configure(c.frame, c.frame.Len()); err != nil {
		return err
	}

	if c.cfg.PowerOnTest {
		PowerOnTest(c.strip, c.frame, c.cfg.PowerOnHold, c.sleep)
	}

	if _, err := io.WriteString(handshake, protocol.Handshake); err != nil {
		return err
	}
	DebugPrintln("adalight " + protocol.Version + ": ready, leds=" + itoa(c.frame.Len()))
	return nil
}

// Run processes frames until the byte source fails.
// Firmware sources never fail, so on a device Run does not return.
func (c *Controller) Run() error {
	for {
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// Step blocks for one complete frame and hands it to the consumers
func (c *Controller) Step() error {
	frame, err := c.decoder.ReadFrame()
	if err != nil {
		return err
	}
	c.handleFrame(frame)
	return nil
}

// handleFrame feeds a completed frame to the display and the strip
func (c *Controller) handleFrame(frame *protocol.FrameBuffer) {
	if !c.cleared {
		// Drop the waiting status once, on the first frame ever
		c.display.Clear()
		c.cleared = true
		DebugPrintln("adalight: first frame")
	}

	c.edges = ExtractEdges(frame, c.cfg.Edges)
	for e, p := range c.edges {
		pos := c.cfg.LabelPositions[e]
		c.display.DrawText(pos.X, pos.Y, c.cfg.Labels[e], PackRGB565(p))
	}

	if err := c.strip.Flush(); err != nil {
		c.flushErrors++
		if IsDebugEnabled() {
			DebugPrintln("adalight: flush failed (" + utoa(c.flushErrors) + "): " + err.Error())
		}
	}
}

// onHeader logs rejected headers and the first length disagreement
func (c *Controller) onHeader(h protocol.Header, accepted bool) {
	if !IsDebugEnabled() {
		return
	}
	if !accepted {
		DebugPrintln("adalight: checksum mismatch hi=" + hex8(h.Hi) + " lo=" + hex8(h.Lo) + " chk=" + hex8(h.Checksum))
		return
	}
	if !c.lengthWarned && h.Count() != c.frame.Len() {
		c.lengthWarned = true
		DebugPrintln("adalight: header announces " + itoa(h.Count()) + " leds, using " + itoa(c.frame.Len()))
	}
}

// Frame returns the frame buffer shared with the strip
func (c *Controller) Frame() *protocol.FrameBuffer {
	return c.frame
}

// Edges returns the samples computed for the most recent frame
func (c *Controller) Edges() EdgeSamples {
	return c.edges
}

// Stats returns decoder and collaborator counters
func (c *Controller) Stats() ControllerStats {
	return ControllerStats{
		DecoderStats: c.decoder.Stats(),
		FlushErrors:  c.flushErrors,
	}
}
