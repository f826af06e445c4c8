package protocol

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

// loopPort is an in-memory port: reads come from rx, writes go to tx
type loopPort struct {
	rx io.Reader
	tx bytes.Buffer
}

func (p *loopPort) Read(b []byte) (int, error)  { return p.rx.Read(b) }
func (p *loopPort) Write(b []byte) (int, error) { return p.tx.Write(b) }

func TestSenderHandshake(t *testing.T) {
	port := &loopPort{rx: bytes.NewReader([]byte("boot noise\r\nAda\n"))}
	s, err := NewSender(port, 2)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	if err := s.WaitForHandshake(time.Second); err != nil {
		t.Errorf("WaitForHandshake failed: %v", err)
	}
}

func TestSenderHandshakeEOF(t *testing.T) {
	port := &loopPort{rx: bytes.NewReader([]byte("Ad"))}
	s, _ := NewSender(port, 2)
	if err := s.WaitForHandshake(time.Second); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF error, got %v", err)
	}
}

// silentPort behaves like a serial port whose read timeout keeps expiring
type silentPort struct {
	reads atomic.Int64
}

func (p *silentPort) Read(b []byte) (int, error) {
	p.reads.Add(1)
	time.Sleep(time.Millisecond)
	return 0, nil
}

func (p *silentPort) Write(b []byte) (int, error) { return len(b), nil }

func TestSenderHandshakeTimeout(t *testing.T) {
	port := &silentPort{}
	s, _ := NewSender(port, 2)
	if err := s.WaitForHandshake(10 * time.Millisecond); !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("Expected ErrHandshakeTimeout, got %v", err)
	}

	// The reader must let go of the port once the wait is over
	time.Sleep(20 * time.Millisecond)
	before := port.reads.Load()
	time.Sleep(30 * time.Millisecond)
	if after := port.reads.Load(); after != before {
		t.Errorf("Port still read after timeout: %d -> %d", before, after)
	}

	// A second wait can take the read lock again
	if err := s.WaitForHandshake(10 * time.Millisecond); !errors.Is(err, ErrHandshakeTimeout) {
		t.Errorf("Second wait: expected ErrHandshakeTimeout, got %v", err)
	}
}

func TestSenderFrameDecodes(t *testing.T) {
	port := &loopPort{rx: bytes.NewReader(nil)}
	s, _ := NewSender(port, 3)

	frames := [][]Pixel{testPixels(3, 1), testPixels(3, 100)}
	for _, f := range frames {
		if err := s.SendFrame(f); err != nil {
			t.Fatalf("SendFrame failed: %v", err)
		}
	}
	if s.FramesSent() != 2 {
		t.Errorf("FramesSent = %d, want 2", s.FramesSent())
	}

	fb, _ := NewFrameBuffer(3)
	dec := NewDecoder(bytes.NewReader(port.tx.Bytes()), fb)
	for i, want := range frames {
		got, err := dec.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: ReadFrame failed: %v", i, err)
		}
		for j := range want {
			if got.At(j) != want[j] {
				t.Errorf("frame %d pixel %d = %+v, want %+v", i, j, got.At(j), want[j])
			}
		}
	}
	if dec.Stats().LengthMismatches != 0 {
		t.Errorf("Sender header count disagrees with frame length")
	}
}

func TestSenderRejectsWrongLength(t *testing.T) {
	s, _ := NewSender(&loopPort{rx: bytes.NewReader(nil)}, 3)
	if err := s.SendFrame(testPixels(2, 0)); !errors.Is(err, ErrPixelCount) {
		t.Errorf("Expected ErrPixelCount, got %v", err)
	}
	if _, err := NewSender(nil, 0); err != ErrInvalidLength {
		t.Errorf("Expected ErrInvalidLength, got %v", err)
	}
}
