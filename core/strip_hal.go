package core

import "adalight/protocol"

// StripDriver is the abstract LED strip interface that core code uses.
// Platform-specific implementations own the wire timing of the strip.
type StripDriver interface {
	// Configure binds the strip to a frame buffer of count pixels
	// Called once at startup, before any Flush
	Configure(buf *protocol.FrameBuffer, count int) error

	// Flush pushes the current buffer contents to the LEDs
	Flush() error
}
