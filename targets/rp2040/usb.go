//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB(baud int) {
	// The line rate is ignored by CDC but kept for a UART console build
	err := machine.Serial.Configure(machine.UARTConfig{BaudRate: uint32(baud)})
	if err != nil {
		return
	}
}

// usbPort adapts machine.Serial to the blocking byte source the decoder
// expects, and carries the handshake back to the host
type usbPort struct{}

// ReadByte waits until a byte arrives. It never fails: on the device there
// is nothing to do but keep waiting for the host.
func (usbPort) ReadByte() (byte, error) {
	for {
		if machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err == nil {
				return b, nil
			}
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// Write sends all of data, retrying partial writes
func (usbPort) Write(data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := machine.Serial.Write(data[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
