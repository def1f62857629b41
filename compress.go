package mysql

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/klauspost/compress/zstd"
)

// compressedReadWriter wraps the connection's current read/write stream
// (spec §4.2) with the compressed packet protocol: each compressed packet
// is a 7-byte header (3-byte compressed length, 1-byte sequence id, 3-byte
// uncompressed length) followed by the payload, optionally zlib- or
// zstd-compressed. Packets under 50 bytes are sent uncompressed
// (uncompressed length == 0) since compressing them rarely pays for
// itself, matching the compressed-protocol convention.
//
// It wraps c.rw rather than the raw net.Conn, so that when TLS has already
// upgraded the connection, compressed packets still flow over the TLS
// stream instead of bypassing it. The plain packetReader/writer above this
// layer are unaware compression is active; they see an ordinary byte
// stream.
type compressedReadWriter struct {
	rw        io.ReadWriteCloser
	algorithm string // "zlib" or "zstd"

	seq uint8

	readBuf bytes.Buffer

	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
}

const compressHeaderSize = 7
const compressMinSize = 50

func newCompressedReadWriter(rw io.ReadWriteCloser, algorithm string) (*compressedReadWriter, error) {
	c := &compressedReadWriter{rw: rw, algorithm: algorithm}
	if algorithm == "zstd" {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		c.zstdEnc, c.zstdDec = enc, dec
	}
	return c, nil
}

func (c *compressedReadWriter) compress(p []byte) ([]byte, error) {
	switch c.algorithm {
	case "zstd":
		return c.zstdEnc.EncodeAll(p, nil), nil
	default:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(p); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func (c *compressedReadWriter) decompress(p []byte) ([]byte, error) {
	switch c.algorithm {
	case "zstd":
		return c.zstdDec.DecodeAll(p, nil)
	default:
		zr, err := zlib.NewReader(bytes.NewReader(p))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
}

// resetSeq restarts the compressed-packet sequence id at 0, mirroring the
// plain protocol's "sequence id resets to 0 at the start of every command"
// rule (spec §4.4) one layer down; the compressed frame has its own
// sequence counter, independent of the plain writer's c.seq.
func (c *compressedReadWriter) resetSeq() {
	c.seq = 0
}

// Write frames p as one or more compressed packets. p is the raw byte
// stream produced by the plain writer (already framed with its own 4-byte
// packet headers); the compressed layer is a second, outer framing and
// does not interpret those inner headers.
func (c *compressedReadWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		chunk := p
		if len(chunk) > maxPacketSize {
			chunk = chunk[:maxPacketSize]
		}
		var payload []byte
		var uncompressedLen int
		if len(chunk) < compressMinSize {
			payload = chunk
			uncompressedLen = 0
		} else {
			compressed, err := c.compress(chunk)
			if err != nil {
				return 0, err
			}
			payload = compressed
			uncompressedLen = len(chunk)
		}
		header := []byte{
			byte(len(payload)), byte(len(payload) >> 8), byte(len(payload) >> 16),
			c.seq,
			byte(uncompressedLen), byte(uncompressedLen >> 8), byte(uncompressedLen >> 16),
		}
		c.seq++
		if _, err := c.rw.Write(header); err != nil {
			return 0, err
		}
		if _, err := c.rw.Write(payload); err != nil {
			return 0, err
		}
		p = p[len(chunk):]
	}
	return total, nil
}

// Close closes the wrapped stream (the plain net.Conn, or the *tls.Conn
// when TLS was negotiated first).
func (c *compressedReadWriter) Close() error {
	return c.rw.Close()
}

func (c *compressedReadWriter) Read(p []byte) (int, error) {
	if c.readBuf.Len() == 0 {
		if err := c.readPacket(); err != nil {
			return 0, err
		}
	}
	return c.readBuf.Read(p)
}

func (c *compressedReadWriter) readPacket() error {
	header := make([]byte, compressHeaderSize)
	if _, err := io.ReadFull(c.rw, header); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	compressedLen := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
	uncompressedLen := int(header[4]) | int(header[5])<<8 | int(header[6])<<16

	payload := make([]byte, compressedLen)
	if _, err := io.ReadFull(c.rw, payload); err != nil {
		return io.ErrUnexpectedEOF
	}
	if uncompressedLen == 0 {
		c.readBuf.Write(payload)
		return nil
	}
	plain, err := c.decompress(payload)
	if err != nil {
		return err
	}
	c.readBuf.Write(plain)
	return nil
}
