package mysql

import (
	"io"
	"os"
)

// localInfileChunkSize bounds how much of the file is buffered per packet;
// well under maxPacketSize so a single chunk never needs the packet
// framer's continuation-packet path.
const localInfileChunkSize = 1 << 20

// handleLocalInfile answers a server-initiated LOAD DATA LOCAL INFILE
// request (spec §4.7). When AllowLocalInfile is unset the client must
// still send the empty terminating packet the protocol expects, but must
// not open anything the server named — opening the file is precisely the
// capability the security requirement withholds by default.
func (c *Conn) handleLocalInfile(filename string) error {
	if !c.allowLocalInfile {
		if err := c.sendEmptyPacket(); err != nil {
			return err
		}
		if _, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities); err != nil {
			if _, ok := err.(*ServerError); ok {
				return ErrLocalInfileDenied
			}
			return err
		}
		return ErrLocalInfileDenied
	}

	f, err := os.Open(filename)
	if err != nil {
		logError(c.logger, err, "local infile open failed")
		if sendErr := c.sendEmptyPacket(); sendErr != nil {
			return sendErr
		}
		_, _ = readOKOrErr(newReader(c.rw, &c.seq), c.capabilities)
		return wrapErr(err, "mysql: open local infile %q", filename)
	}
	defer f.Close()

	w := newWriter(c.rw, &c.seq)
	buf := make([]byte, localInfileChunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if werr := w.Close(); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return wrapErr(rerr, "mysql: read local infile %q", filename)
		}
	}
	if err := c.sendEmptyPacket(); err != nil {
		return err
	}
	ok, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities)
	if err != nil {
		return err
	}
	c.lastOK = *ok
	return nil
}

func (c *Conn) sendEmptyPacket() error {
	w := newWriter(c.rw, &c.seq)
	return w.Close()
}
