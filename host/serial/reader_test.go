package serial

import (
	"context"
	"errors"
	"io"
	"testing"
)

// timeoutReader yields empty reads between chunks, like a port whose read
// timeout keeps expiring
type timeoutReader struct {
	chunks [][]byte
	empty  int
	cancel context.CancelFunc
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if r.empty > 0 {
		r.empty--
		return 0, nil
	}
	if len(r.chunks) == 0 {
		if r.cancel != nil {
			r.cancel()
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	r.empty = 2
	return n, nil
}

func TestByteReaderSkipsTimeouts(t *testing.T) {
	src := &timeoutReader{chunks: [][]byte{[]byte("Ad"), []byte("a")}, empty: 3}
	br := NewByteReader(context.Background(), src, 4)

	var got []byte
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
		got = append(got, c)
	}
	if string(got) != "Ada" {
		t.Errorf("Read %q, want %q", got, "Ada")
	}
}

func TestByteReaderCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &timeoutReader{chunks: [][]byte{{0x41}}, cancel: cancel}
	br := NewByteReader(ctx, src, 0)

	if c, err := br.ReadByte(); err != nil || c != 0x41 {
		t.Fatalf("ReadByte = %x, %v", c, err)
	}
	if _, err := br.ReadByte(); !errors.Is(err, context.Canceled) {
		t.Errorf("After cancel: got %v, want context.Canceled", err)
	}
}

func TestByteReaderBuffered(t *testing.T) {
	src := &timeoutReader{chunks: [][]byte{[]byte("abcd")}}
	br := NewByteReader(context.Background(), src, 8)
	br.ReadByte()
	if br.Buffered() != 3 {
		t.Errorf("Buffered = %d, want 3", br.Buffered())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Baud != 115200 || cfg.ReadTimeout != 100 || cfg.Device != "/dev/ttyACM0" {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
}
