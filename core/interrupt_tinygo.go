//go:build tinygo

package core

import "runtime/interrupt"

// Critical runs f with interrupts disabled and restores the previous state
func Critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
