package serial

import (
	"context"
	"io"
)

// ByteReader turns a port with a read timeout into the blocking byte
// source the decoder consumes. It keeps retrying empty reads until the
// context is cancelled, which is how a daemon interrupts a decoder that
// is waiting for the host.
type ByteReader struct {
	ctx context.Context
	r   io.Reader
	buf []byte
	pos int
	end int
}

// NewByteReader wraps r; size is the read chunk
func NewByteReader(ctx context.Context, r io.Reader, size int) *ByteReader {
	if size <= 0 {
		size = 256
	}
	return &ByteReader{ctx: ctx, r: r, buf: make([]byte, size)}
}

// ReadByte returns the next byte, ctx.Err() once cancelled, or the
// underlying read error
func (b *ByteReader) ReadByte() (byte, error) {
	for b.pos == b.end {
		if err := b.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := b.r.Read(b.buf)
		b.pos, b.end = 0, n
		if n > 0 {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	c := b.buf[b.pos]
	b.pos++
	return c, nil
}

// Buffered returns the number of bytes read from the port but not consumed
func (b *ByteReader) Buffered() int {
	return b.end - b.pos
}
