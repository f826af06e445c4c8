//go:build !tinygo

package core

// Critical runs f directly; there are no interrupts to mask on regular Go
func Critical(f func()) {
	f()
}
