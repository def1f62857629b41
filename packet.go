package mysql

import (
	"io"

	"github.com/pkg/errors"
)

const (
	headerSize    = 4
	maxPacketSize = 1<<24 - 1
)

// ErrSequenceDesync is returned when a packet's sequence id does not match
// the connection's expected value. The connection is no longer usable once
// this occurs; the caller must close it.
var ErrSequenceDesync = errors.New("mysql: packet sequence desync")

// packetReader turns a byte stream into the payload of a single logical
// message, transparently concatenating the maximal packets described in
// spec §4.2 (any packet with length == maxPacketSize is followed by a
// continuation packet) until a short or empty terminating packet is seen.
type packetReader struct {
	rd   io.Reader
	seq  *uint8
	last bool
	size int
}

func (r *packetReader) Read(p []byte) (int, error) {
	if r.size == 0 {
		if r.last {
			return 0, io.EOF
		}
		h := make([]byte, headerSize)
		if _, err := io.ReadFull(r.rd, h); err != nil {
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		r.size = int(uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16)
		if h[3] != *r.seq {
			return 0, ErrSequenceDesync
		}
		*r.seq = h[3] + 1
		if r.size < maxPacketSize {
			r.last = true
			if r.size == 0 {
				return 0, io.EOF
			}
		}
	}
	n, err := io.LimitReader(r.rd, int64(r.size)).Read(p)
	r.size -= n
	if n > 0 {
		return n, nil
	}
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	return 0, err
}

// reset prepares the packetReader to read the next logical message on the
// same connection (the caller has fully drained the previous one).
func (r *packetReader) reset() {
	r.last = false
	r.size = 0
}
