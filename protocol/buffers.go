package protocol

import "bytes"

// FifoBuffer is a circular buffer collecting serial input until a marker
// shows up
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Data returns available data as a slice
// When wrapped, this copies data into a contiguous slice
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	avail := f.Available()
	result := make([]byte, avail)

	firstLen := f.size - f.read
	copy(result, f.buf[f.read:])
	copy(result[firstLen:], f.buf[:f.write])

	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// Scan discards bytes up to and including the first occurrence of marker.
// When the marker is missing, only the last len(marker)-1 bytes are kept
// since they may hold the start of a marker split across reads.
func (f *FifoBuffer) Scan(marker []byte) bool {
	data := f.Data()
	if i := bytes.Index(data, marker); i >= 0 {
		f.Pop(i + len(marker))
		return true
	}
	keep := len(marker) - 1
	if keep > len(data) {
		keep = len(data)
	}
	f.Pop(len(data) - keep)
	return false
}
