package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrHandshakeTimeout = errors.New("handshake timeout")
	ErrPixelCount       = errors.New("pixel count does not match sender length")
)

// Sender is the host side of the protocol: it waits for the device
// handshake and streams frames of a fixed length
type Sender struct {
	port  io.ReadWriter
	count int

	writeMutex sync.Mutex
	frameBuf   []byte
	framesSent uint64

	readMutex sync.Mutex
	input     *FifoBuffer
}

// NewSender creates a sender streaming count pixels per frame
func NewSender(port io.ReadWriter, count int) (*Sender, error) {
	if count <= 0 || count > MaxLEDs {
		return nil, ErrInvalidLength
	}
	return &Sender{
		port:     port,
		count:    count,
		frameBuf: make([]byte, 0, FrameSize(count)),
		input:    NewFifoBuffer(256),
	}, nil
}

// Count returns the number of pixels per frame
func (s *Sender) Count() int {
	return s.count
}

// WaitForHandshake blocks until the device writes its "Ada\n" greeting.
// On timeout the reader stops at its next pass through the read loop, so
// the port should have a read timeout (serial.DefaultConfig sets one).
func (s *Sender) WaitForHandshake(timeout time.Duration) error {
	done := make(chan error, 1)
	stop := make(chan struct{})
	go func() {
		done <- s.readHandshake(stop)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		close(stop)
		return fmt.Errorf("%w after %v", ErrHandshakeTimeout, timeout)
	}
}

// readHandshake reads the port until the handshake marker shows up or
// stop is closed
func (s *Sender) readHandshake(stop <-chan struct{}) error {
	s.readMutex.Lock()
	defer s.readMutex.Unlock()

	marker := []byte(Handshake)
	buffer := make([]byte, 64)
	for {
		select {
		case <-stop:
			return ErrHandshakeTimeout
		default:
		}

		n, err := s.port.Read(buffer)
		if n > 0 {
			s.input.Write(buffer[:n])
			if s.input.Scan(marker) {
				return nil
			}
		}
		if err != nil {
			return fmt.Errorf("read handshake: %w", err)
		}
	}
}

// SendFrame encodes and writes one frame
func (s *Sender) SendFrame(pixels []Pixel) error {
	if len(pixels) != s.count {
		return fmt.Errorf("%w: got %d, want %d", ErrPixelCount, len(pixels), s.count)
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	s.frameBuf = AppendFrame(s.frameBuf[:0], pixels)
	n, err := s.port.Write(s.frameBuf)
	if err != nil {
		return err
	}
	if n != len(s.frameBuf) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(s.frameBuf))
	}
	s.framesSent++
	return nil
}

// SendFrameBuffer writes the contents of fb
func (s *Sender) SendFrameBuffer(fb *FrameBuffer) error {
	return s.SendFrame(fb.Pixels())
}

// FramesSent returns the number of frames written successfully
func (s *Sender) FramesSent() uint64 {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	return s.framesSent
}
