package pio

import "errors"

var ErrNoStateMachine = errors.New("no free PIO state machine")

// RP2040/RP2350 have 2 usable PIO blocks (PIO0, PIO1) with 4 state machines each
const (
	numPIO = 2
	numSM  = 4
)

// Allocator tracks which state machines are claimed
type Allocator struct {
	used    [numPIO][numSM]bool
	nextPIO uint8
	nextSM  uint8
}

// Claim takes a specific state machine
func (a *Allocator) Claim(pioNum, smNum uint8) error {
	if pioNum >= numPIO || smNum >= numSM || a.used[pioNum][smNum] {
		return ErrNoStateMachine
	}
	a.used[pioNum][smNum] = true
	return nil
}

// Allocate takes the next free state machine, round-robin across blocks.
// Returns (pioNum, smNum, error).
func (a *Allocator) Allocate() (uint8, uint8, error) {
	for i := 0; i < numPIO*numSM; i++ {
		pioNum := a.nextPIO
		smNum := a.nextSM

		// Advance to next slot
		a.nextSM++
		if a.nextSM >= numSM {
			a.nextSM = 0
			a.nextPIO = (a.nextPIO + 1) % numPIO
		}

		if !a.used[pioNum][smNum] {
			a.used[pioNum][smNum] = true
			return pioNum, smNum, nil
		}
	}

	return 0, 0, ErrNoStateMachine
}

// Take claims pioNum/smNum, or the next free state machine when either
// is negative
func (a *Allocator) Take(pioNum, smNum int) (uint8, uint8, error) {
	if pioNum < 0 || smNum < 0 {
		return a.Allocate()
	}
	if pioNum >= numPIO || smNum >= numSM {
		return 0, 0, ErrNoStateMachine
	}
	if err := a.Claim(uint8(pioNum), uint8(smNum)); err != nil {
		return 0, 0, err
	}
	return uint8(pioNum), uint8(smNum), nil
}

// Reset releases every state machine
func (a *Allocator) Reset() {
	*a = Allocator{}
}
