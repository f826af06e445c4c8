//go:build rp2040 || rp2350

package main

import (
	"machine"

	"adalight/core"
)

var debugUART *machine.UART

// InitDebugUART brings up UART1 on GPIO4 (TX) / GPIO5 (RX) and routes core
// debug output to it. USB CDC carries the colour stream, so it cannot be
// used for logging.
func InitDebugUART() {
	debugUART = machine.UART1

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO4,
		RX:       machine.GPIO5,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(debugPrintln)
	core.SetDebugEnabled(true)

	// Send a startup message
	core.DebugPrintln("=== adalight debug UART initialized ===")
}

// debugPrintln writes a string to the debug UART with newline
func debugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
