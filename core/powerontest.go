package core

import (
	"time"

	"adalight/protocol"
)

// powerOnSequence is flashed across the whole strip at boot
var powerOnSequence = [...]protocol.Pixel{
	{R: 255},
	{G: 255},
	{B: 255},
}

// PowerOnTest flashes red, green and blue over the full strip, holding each
// for hold, then leaves the strip black. Flush errors are ignored: a dead
// strip must not keep the device from answering the host.
func PowerOnTest(strip StripDriver, frame *protocol.FrameBuffer, hold time.Duration, sleep func(time.Duration)) {
	for _, p := range powerOnSequence {
		frame.Fill(p)
		_ = strip.Flush()
		sleep(hold)
	}
	frame.ClearAll()
	_ = strip.Flush()
}
