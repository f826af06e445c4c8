package pio

import "adalight/protocol"

// WS2812 bit timing: 800 kHz, each bit spread over T1+T2+T3 PIO cycles
const (
	ws2812BitHz = 800_000

	ws2812T1 = 2 // start bit, always high
	ws2812T2 = 5 // data bit
	ws2812T3 = 3 // tail, always low

	ws2812CyclesPerBit = ws2812T1 + ws2812T2 + ws2812T3
)

// clockDivider returns the integer and 1/256 fractional divider that runs a
// state machine at ws2812CyclesPerBit cycles per WS2812 bit
func clockDivider(sysHz uint32) (whole uint16, frac uint8) {
	div256 := uint64(sysHz) * 256 / (ws2812BitHz * ws2812CyclesPerBit)
	return uint16(div256 >> 8), uint8(div256)
}

// packGRB lays a pixel out as the strip expects it, MSB first, in the top
// 24 bits of a TX FIFO word
func packGRB(p protocol.Pixel) uint32 {
	return uint32(p.G)<<24 | uint32(p.R)<<16 | uint32(p.B)<<8
}
