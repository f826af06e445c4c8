//go:build rp2040 || rp2350

package pio

import (
	"machine"
	"time"

	"adalight/protocol"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// resetTime is the low period that latches a WS2812 frame
const resetTime = 80 * time.Microsecond

// buildWS2812Program creates the WS2812 bit program using AssemblerV0.
// Each bit is ws2812CyclesPerBit cycles: high for T1, then the data
// bit for T2, then low for T3. Jump targets are absolute, so the program
// must be loaded at ws2812Origin.
func buildWS2812Program() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 1}
	return []uint16{
		// .wrap_target
		// bitloop:
		asm.Out(rp2pio.OutDestX, 1).Side(0).Delay(ws2812T3 - 1).Encode(),  // 0: out x, 1 side 0 [T3-1]
		asm.Jmp(3, rp2pio.JmpXZero).Side(1).Delay(ws2812T1 - 1).Encode(),  // 1: jmp !x do_zero side 1 [T1-1]
		asm.Jmp(0, rp2pio.JmpAlways).Side(1).Delay(ws2812T2 - 1).Encode(), // 2: jmp bitloop side 1 [T2-1]
		asm.Nop().Side(0).Delay(ws2812T2 - 1).Encode(),                    // 3: do_zero: nop side 0 [T2-1]
		// .wrap
	}
}

const ws2812Origin = 0

// Shared across every strip on the board
var allocator Allocator

// WS2812PIO drives a WS2812 strip from a PIO state machine, leaving the CPU
// free while the bits are clocked out
type WS2812PIO struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	pioNum uint8
	smNum  uint8

	buf   *protocol.FrameBuffer
	count int
}

// NewWS2812PIO claims a state machine for pin.
// pioNum: 0 for PIO0, 1 for PIO1; smNum: 0-3. A negative value for
// either picks the next free state machine.
func NewWS2812PIO(pin machine.Pin, pioWant, smWant int) (*WS2812PIO, error) {
	pioNum, smNum, err := allocator.Take(pioWant, smWant)
	if err != nil {
		return nil, err
	}

	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	return &WS2812PIO{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pin:    pin,
		pioNum: pioNum,
		smNum:  smNum,
	}, nil
}

// Configure loads the program and starts the state machine
func (s *WS2812PIO) Configure(buf *protocol.FrameBuffer, count int) error {
	s.buf = buf
	s.count = count

	// Claim the state machine before touching it
	s.sm.TryClaim()

	program := buildWS2812Program()
	offset, err := s.pio.AddProgram(program, ws2812Origin)
	if err != nil {
		return err
	}
	s.offset = offset

	s.pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()

	// Side-set drives the data line
	cfg.SetSidesetParams(1, false, false)
	cfg.SetSidesetPins(s.pin)

	// Shift left, autopull after 24 bits (one GRB pixel)
	cfg.SetOutShift(false, true, 24)

	// No RX needed: join both FIFOs for TX depth
	cfg.SetFIFOJoin(rp2pio.FifoJoinTx)

	cfg.SetWrap(offset, offset+uint8(len(program))-1)

	whole, frac := clockDivider(machine.CPUFrequency())
	cfg.SetClkDivIntFrac(whole, frac)

	// Initialize state machine first, pin directions after
	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.pin, 1, true)
	s.sm.SetPinsConsecutive(s.pin, 1, false)

	s.sm.SetEnabled(true)
	return nil
}

// Flush streams the frame buffer into the TX FIFO and waits for the latch
func (s *WS2812PIO) Flush() error {
	pixels := s.buf.Pixels()
	if s.count < len(pixels) {
		pixels = pixels[:s.count]
	}

	for _, p := range pixels {
		for s.sm.IsTxFIFOFull() {
			// Busy wait - a pixel drains in 30us
		}
		s.sm.TxPut(packGRB(p))
	}

	for !s.sm.IsTxFIFOEmpty() {
	}
	// Last word may still be shifting out
	time.Sleep(resetTime + 30*time.Microsecond)
	return nil
}
