package protocol

import "io"

// State is a position in the decoder state machine
type State uint8

const (
	StateSeekMagic State = iota
	StateReadHeader
	StateValidateChecksum
	StateReadPayload
	StateFrameReady
)

func (s State) String() string {
	switch s {
	case StateSeekMagic:
		return "SEEK_MAGIC"
	case StateReadHeader:
		return "READ_HEADER"
	case StateValidateChecksum:
		return "VALIDATE_CHECKSUM"
	case StateReadPayload:
		return "READ_PAYLOAD"
	case StateFrameReady:
		return "FRAME_READY"
	default:
		return "UNKNOWN"
	}
}

// Transition table:
//
//	SEEK_MAGIC        -> SEEK_MAGIC (byte consumed) | READ_HEADER (magic complete)
//	READ_HEADER       -> VALIDATE_CHECKSUM
//	VALIDATE_CHECKSUM -> SEEK_MAGIC (bad checksum) | READ_PAYLOAD (buffer zeroed)
//	READ_PAYLOAD      -> FRAME_READY
//	FRAME_READY       -> SEEK_MAGIC
type stepFunc func(d *Decoder) (State, error)

var steps = [...]stepFunc{
	StateSeekMagic:        (*Decoder).seekMagic,
	StateReadHeader:       (*Decoder).readHeader,
	StateValidateChecksum: (*Decoder).validateChecksum,
	StateReadPayload:      (*Decoder).readPayload,
	StateFrameReady:       (*Decoder).frameReady,
}

// DecoderStats counts decoder events since construction
type DecoderStats struct {
	Frames           uint32 // Frames completed
	MagicResets      uint32 // Partial magic matches broken by a wrong byte
	ChecksumErrors   uint32 // Headers rejected by the checksum gate
	LengthMismatches uint32 // Accepted headers announcing a count other than the buffer length
	ReadErrors       uint32 // Attempts abandoned because the byte source failed
}

// HeaderCallback is called for every header read, after validation
type HeaderCallback func(h Header, accepted bool)

// Decoder turns a blocking byte stream into frames.
// Every read blocks until the source yields a byte; there is no timeout.
type Decoder struct {
	src    io.ByteReader
	frame  *FrameBuffer
	state  State
	cursor int // position within Magic
	header Header
	stats  DecoderStats

	headerCallback HeaderCallback
}

// NewDecoder creates a decoder that fills frame from src
func NewDecoder(src io.ByteReader, frame *FrameBuffer) *Decoder {
	return &Decoder{
		src:   src,
		frame: frame,
		state: StateSeekMagic,
	}
}

// SetHeaderCallback sets a callback observing every header
func (d *Decoder) SetHeaderCallback(callback HeaderCallback) {
	d.headerCallback = callback
}

// State returns the current state
func (d *Decoder) State() State {
	return d.state
}

// Frame returns the frame buffer the decoder writes into
func (d *Decoder) Frame() *FrameBuffer {
	return d.frame
}

// Stats returns a copy of the event counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Step runs the action of the current state and moves to the next one.
// A source error abandons the attempt and returns the decoder to SEEK_MAGIC.
func (d *Decoder) Step() (State, error) {
	next, err := steps[d.state](d)
	if err != nil {
		d.stats.ReadErrors++
		d.Reset()
		return d.state, err
	}
	d.state = next
	return next, nil
}

// ReadFrame blocks until a complete frame has been decoded.
// The returned buffer stays valid until the next call.
func (d *Decoder) ReadFrame() (*FrameBuffer, error) {
	for {
		state, err := d.Step()
		if err != nil {
			return nil, err
		}
		if state == StateFrameReady {
			// FRAME_READY hands the frame out and loops back
			if _, err := d.Step(); err != nil {
				return nil, err
			}
			return d.frame, nil
		}
	}
}

// Reset drops any partial match and returns to SEEK_MAGIC
func (d *Decoder) Reset() {
	d.state = StateSeekMagic
	d.cursor = 0
}

func (d *Decoder) seekMagic() (State, error) {
	b, err := d.src.ReadByte()
	if err != nil {
		return StateSeekMagic, err
	}

	if b != Magic[d.cursor] {
		// The breaking byte is discarded, not re-examined as a new start
		if d.cursor > 0 {
			d.stats.MagicResets++
		}
		d.cursor = 0
		return StateSeekMagic, nil
	}

	d.cursor++
	if d.cursor < len(Magic) {
		return StateSeekMagic, nil
	}
	d.cursor = 0
	return StateReadHeader, nil
}

func (d *Decoder) readHeader() (State, error) {
	var raw [HeaderSize]byte
	for i := range raw {
		b, err := d.src.ReadByte()
		if err != nil {
			return StateReadHeader, err
		}
		raw[i] = b
	}
	d.header = Header{Hi: raw[0], Lo: raw[1], Checksum: raw[2]}
	return StateValidateChecksum, nil
}

func (d *Decoder) validateChecksum() (State, error) {
	h := d.header
	if !h.Valid() {
		d.stats.ChecksumErrors++
		if d.headerCallback != nil {
			d.headerCallback(h, false)
		}
		return StateSeekMagic, nil
	}

	if h.Count() != d.frame.Len() {
		d.stats.LengthMismatches++
	}
	if d.headerCallback != nil {
		d.headerCallback(h, true)
	}

	// Zero before reading so an abandoned frame never leaks into this one
	d.frame.ClearAll()
	return StateReadPayload, nil
}

func (d *Decoder) readPayload() (State, error) {
	n := d.frame.Len()
	for i := 0; i < n; i++ {
		r, err := d.src.ReadByte()
		if err != nil {
			return StateReadPayload, err
		}
		g, err := d.src.ReadByte()
		if err != nil {
			return StateReadPayload, err
		}
		b, err := d.src.ReadByte()
		if err != nil {
			return StateReadPayload, err
		}
		d.frame.Set(i, r, g, b)
	}
	return StateFrameReady, nil
}

func (d *Decoder) frameReady() (State, error) {
	d.stats.Frames++
	return StateSeekMagic, nil
}
