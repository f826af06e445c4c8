package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// segmentReader yields each segment in turn and returns errStall between them
type segmentReader struct {
	segments [][]byte
	pos      int
}

var errStall = errors.New("stream stalled")

func (r *segmentReader) ReadByte() (byte, error) {
	for len(r.segments) > 0 {
		seg := r.segments[0]
		if r.pos < len(seg) {
			b := seg[r.pos]
			r.pos++
			return b, nil
		}
		r.segments = r.segments[1:]
		r.pos = 0
		if len(r.segments) > 0 {
			return 0, errStall
		}
	}
	return 0, io.EOF
}

func testPixels(n int, seed uint8) []Pixel {
	pixels := make([]Pixel, n)
	for i := range pixels {
		v := seed + uint8(i*7)
		pixels[i] = Pixel{R: v, G: v ^ 0xA5, B: 255 - v}
	}
	return pixels
}

func newTestDecoder(t *testing.T, n int, stream []byte) *Decoder {
	t.Helper()
	fb, err := NewFrameBuffer(n)
	if err != nil {
		t.Fatalf("NewFrameBuffer(%d) failed: %v", n, err)
	}
	return NewDecoder(bytes.NewReader(stream), fb)
}

func TestDecoderRoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 25, 160} {
		pixels := testPixels(n, uint8(n))
		dec := newTestDecoder(t, n, EncodeFrame(pixels))

		fb, err := dec.ReadFrame()
		if err != nil {
			t.Fatalf("n=%d: ReadFrame failed: %v", n, err)
		}
		for i, want := range pixels {
			if got := fb.At(i); got != want {
				t.Errorf("n=%d: pixel %d = %+v, want %+v", n, i, got, want)
			}
		}
		if dec.State() != StateSeekMagic {
			t.Errorf("n=%d: state after frame = %v, want SEEK_MAGIC", n, dec.State())
		}
		if dec.Stats().Frames != 1 {
			t.Errorf("n=%d: Frames = %d, want 1", n, dec.Stats().Frames)
		}
	}
}

func TestDecoderConsecutiveFrames(t *testing.T) {
	first := testPixels(4, 10)
	second := testPixels(4, 200)
	stream := append(EncodeFrame(first), EncodeFrame(second)...)
	dec := newTestDecoder(t, 4, stream)

	for i, want := range [][]Pixel{first, second} {
		fb, err := dec.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: ReadFrame failed: %v", i, err)
		}
		for j := range want {
			if fb.At(j) != want[j] {
				t.Errorf("frame %d pixel %d = %+v, want %+v", i, j, fb.At(j), want[j])
			}
		}
	}

	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Errorf("Expected io.EOF after last frame, got %v", err)
	}
}

func TestChecksumGate(t *testing.T) {
	fb, _ := NewFrameBuffer(1)
	marker := Pixel{R: 1, G: 2, B: 3}

	for hi := 0; hi < 256; hi++ {
		for lo := 0; lo < 256; lo++ {
			chk := HeaderChecksum(uint8(hi), uint8(lo))

			// Valid checksum: the payload is read
			fb.Fill(marker)
			good := []byte{'A', 'd', 'a', uint8(hi), uint8(lo), chk, 9, 8, 7}
			dec := NewDecoder(bytes.NewReader(good), fb)
			if _, err := dec.ReadFrame(); err != nil {
				t.Fatalf("hi=%d lo=%d: valid header rejected: %v", hi, lo, err)
			}
			if fb.At(0) != (Pixel{R: 9, G: 8, B: 7}) {
				t.Fatalf("hi=%d lo=%d: payload not decoded, got %+v", hi, lo, fb.At(0))
			}

			// Any other checksum: back to magic search, buffer untouched
			fb.Fill(marker)
			bad := []byte{'A', 'd', 'a', uint8(hi), uint8(lo), chk + 1}
			dec = NewDecoder(bytes.NewReader(bad), fb)
			if _, err := dec.ReadFrame(); err != io.EOF {
				t.Fatalf("hi=%d lo=%d: invalid header accepted (err=%v)", hi, lo, err)
			}
			if dec.Stats().ChecksumErrors != 1 {
				t.Fatalf("hi=%d lo=%d: ChecksumErrors = %d, want 1", hi, lo, dec.Stats().ChecksumErrors)
			}
			if fb.At(0) != marker {
				t.Fatalf("hi=%d lo=%d: buffer altered by rejected header: %+v", hi, lo, fb.At(0))
			}
		}
	}
}

func TestChecksumGateRejectsEveryWrongValue(t *testing.T) {
	fb, _ := NewFrameBuffer(1)
	marker := Pixel{R: 1, G: 2, B: 3}

	for hi := 0; hi < 256; hi += 15 {
		for lo := 0; lo < 256; lo += 15 {
			want := HeaderChecksum(uint8(hi), uint8(lo))

			// One rejected header per wrong checksum value, back to back
			var stream []byte
			for chk := 0; chk < 256; chk++ {
				if uint8(chk) == want {
					continue
				}
				stream = append(stream, 'A', 'd', 'a', uint8(hi), uint8(lo), uint8(chk))
			}

			fb.Fill(marker)
			dec := NewDecoder(bytes.NewReader(stream), fb)
			if _, err := dec.ReadFrame(); err != io.EOF {
				t.Fatalf("hi=%d lo=%d: wrong checksum accepted (err=%v)", hi, lo, err)
			}
			if got := dec.Stats().ChecksumErrors; got != 255 {
				t.Errorf("hi=%d lo=%d: ChecksumErrors = %d, want 255", hi, lo, got)
			}
			if fb.At(0) != marker {
				t.Errorf("hi=%d lo=%d: buffer altered by rejected headers: %+v", hi, lo, fb.At(0))
			}
		}
	}
}

func TestChecksumMismatchResyncs(t *testing.T) {
	pixels := testPixels(2, 42)
	stream := []byte{'A', 'd', 'a', 0x00, 0x01, 0x00} // bad checksum
	stream = append(stream, EncodeFrame(pixels)...)
	dec := newTestDecoder(t, 2, stream)

	fb, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	for i := range pixels {
		if fb.At(i) != pixels[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, fb.At(i), pixels[i])
		}
	}
	if dec.Stats().ChecksumErrors != 1 {
		t.Errorf("ChecksumErrors = %d, want 1", dec.Stats().ChecksumErrors)
	}
}

func TestResyncAfterBrokenMagic(t *testing.T) {
	pixels := testPixels(3, 7)
	stream := append([]byte("Adx"), EncodeFrame(pixels)...)
	dec := newTestDecoder(t, 3, stream)

	fb, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	for i := range pixels {
		if fb.At(i) != pixels[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, fb.At(i), pixels[i])
		}
	}
	stats := dec.Stats()
	if stats.MagicResets != 1 {
		t.Errorf("MagicResets = %d, want 1", stats.MagicResets)
	}
	if stats.Frames != 1 {
		t.Errorf("Frames = %d, want 1", stats.Frames)
	}
}

func TestBreakingByteIsDiscarded(t *testing.T) {
	// "AAda": the second 'A' breaks the match and is not reused as a new start,
	// so the following "da" never completes the magic word
	stream := append([]byte("AAda"), 0x00, 0x00, 0x55, 1, 2, 3)
	dec := newTestDecoder(t, 1, stream)

	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Fatalf("Expected io.EOF, got %v", err)
	}
	if dec.Stats().Frames != 0 {
		t.Errorf("Frames = %d, want 0", dec.Stats().Frames)
	}
}

func TestStaleDataIsolation(t *testing.T) {
	stale := testPixels(4, 99)
	fresh := []Pixel{{R: 1}, {G: 2}, {B: 3}, {R: 4, G: 5, B: 6}}

	// Header plus a partial payload, then the stream stalls
	partial := EncodeFrame(stale)
	partial = partial[:len(Magic)+HeaderSize+5]

	src := &segmentReader{segments: [][]byte{partial, EncodeFrame(fresh)}}
	fb, _ := NewFrameBuffer(4)
	dec := NewDecoder(src, fb)

	if _, err := dec.ReadFrame(); err != errStall {
		t.Fatalf("Expected stall error, got %v", err)
	}
	if dec.State() != StateSeekMagic {
		t.Errorf("State after stall = %v, want SEEK_MAGIC", dec.State())
	}

	got, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame after stall failed: %v", err)
	}
	for i := range fresh {
		if got.At(i) != fresh[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, got.At(i), fresh[i])
		}
	}
	if dec.Stats().ReadErrors != 1 {
		t.Errorf("ReadErrors = %d, want 1", dec.Stats().ReadErrors)
	}
}

func TestValidHeaderZeroesBuffer(t *testing.T) {
	fb, _ := NewFrameBuffer(2)
	fb.Fill(Pixel{R: 200, G: 200, B: 200})

	// Valid header followed by only one pixel: the buffer is already zeroed
	stream := []byte{'A', 'd', 'a', 0x00, 0x01, HeaderChecksum(0x00, 0x01), 10, 20, 30}
	dec := NewDecoder(bytes.NewReader(stream), fb)

	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Fatalf("Expected io.EOF, got %v", err)
	}
	if fb.At(0) != (Pixel{R: 10, G: 20, B: 30}) {
		t.Errorf("pixel 0 = %+v", fb.At(0))
	}
	if fb.At(1) != Black {
		t.Errorf("pixel 1 = %+v, want black", fb.At(1))
	}
}

func TestHeaderLengthIgnored(t *testing.T) {
	// Header announces 1 LED but the buffer holds 3: all 3 are read
	pixels := testPixels(3, 5)
	stream := []byte{'A', 'd', 'a', 0x00, 0x00, 0x55}
	for _, p := range pixels {
		stream = append(stream, p.R, p.G, p.B)
	}
	dec := newTestDecoder(t, 3, stream)

	fb, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if fb.At(2) != pixels[2] {
		t.Errorf("pixel 2 = %+v, want %+v", fb.At(2), pixels[2])
	}
	if dec.Stats().LengthMismatches != 1 {
		t.Errorf("LengthMismatches = %d, want 1", dec.Stats().LengthMismatches)
	}
}

func TestHeaderCallback(t *testing.T) {
	stream := []byte{'A', 'd', 'a', 0x12, 0x34, 0x00}
	stream = append(stream, EncodeFrame(testPixels(1, 0))...)
	dec := newTestDecoder(t, 1, stream)

	var seen []bool
	dec.SetHeaderCallback(func(h Header, accepted bool) {
		seen = append(seen, accepted)
	})

	if _, err := dec.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Errorf("Callback sequence = %v, want [false true]", seen)
	}
}

func TestStepTransitions(t *testing.T) {
	stream := EncodeFrame([]Pixel{{R: 1, G: 2, B: 3}})
	dec := newTestDecoder(t, 1, stream)

	want := []State{
		StateSeekMagic, StateSeekMagic, StateReadHeader,
		StateValidateChecksum, StateReadPayload, StateFrameReady, StateSeekMagic,
	}
	for i, w := range want {
		got, err := dec.Step()
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if got != w {
			t.Errorf("step %d: state = %v, want %v", i, got, w)
		}
	}
}

func TestHeader(t *testing.T) {
	h := NewHeader(60)
	if h.Hi != 0 || h.Lo != 59 {
		t.Errorf("NewHeader(60) = %+v", h)
	}
	if !h.Valid() {
		t.Error("NewHeader produced an invalid checksum")
	}
	if h.Count() != 60 {
		t.Errorf("Count() = %d, want 60", h.Count())
	}

	h = NewHeader(MaxLEDs)
	if h.Hi != 0xFF || h.Lo != 0xFF || h.Count() != MaxLEDs {
		t.Errorf("NewHeader(MaxLEDs) = %+v count %d", h, h.Count())
	}

	if HeaderChecksum(0, 0) != 0x55 {
		t.Errorf("HeaderChecksum(0, 0) = 0x%02X, want 0x55", HeaderChecksum(0, 0))
	}
}
