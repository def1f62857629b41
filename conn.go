package mysql

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Command codes (spec §4.4).
const (
	comQuit              = 0x01
	comInitDB            = 0x02
	comQuery             = 0x03
	comPing              = 0x0e
	comStmtPrepare       = 0x16
	comStmtExecute       = 0x17
	comStmtSendLongData  = 0x18
	comStmtClose         = 0x19
	comStmtReset         = 0x1a
	comStmtFetch         = 0x1c
)

// mode tracks which phase of the command/response state machine the
// connection is in (spec §4.4).
type mode int32

const (
	modeIdle mode = iota
	modeCommand
	modeReadingRows
	modeLocalInfile
	modeClosed
)

// Conn is a single connection to a MySQL/MariaDB server. It implements the
// command/response state machine described in spec §4.4: exactly one
// command may be in flight at a time, enforced by mu/mode rather than by
// requiring the caller to serialize calls themselves.
type Conn struct {
	netConn net.Conn
	rw      io.ReadWriteCloser // netConn, optionally wrapped by TLS and/or compression
	addr    string
	seq     uint8

	hs           handshake
	capabilities uint32
	connectAttrs map[string]string
	pubKeys      PubKeyCache
	logger       *logrus.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration
	allowLocalInfile bool

	mu     sync.Mutex
	mode   mode
	lastOK okPacket
}

// Open dials the server, completes the handshake, optionally upgrades to
// TLS, authenticates, and negotiates compression, returning a ready
// connection (spec §6 Open).
func Open(ctx context.Context, opts Options) (*Conn, error) {
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	netConn, err := dialer.DialContext(ctx, opts.Network, opts.Address)
	if err != nil {
		return nil, wrapErr(err, "mysql: dial %s %s", opts.Network, opts.Address)
	}
	if tc, ok := netConn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
	}

	c := &Conn{
		netConn:          netConn,
		rw:               netConn,
		addr:             opts.Address,
		connectAttrs:     opts.connectAttrs(),
		pubKeys:          opts.pubKeyCache(),
		logger:           opts.logger(),
		readTimeout:      opts.ReadTimeout,
		writeTimeout:     opts.WriteTimeout,
		allowLocalInfile: opts.AllowLocalInfile,
	}

	if err := c.readHandshake(ctx); err != nil {
		_ = netConn.Close()
		return nil, err
	}

	c.capabilities = defaultClientCapabilities & c.hs.capabilityFlags
	if opts.Database != "" {
		c.capabilities |= capConnectWithDB
	}
	if opts.AllowLocalInfile {
		c.capabilities |= capLocalFiles
	}
	if opts.TLS != nil && c.hs.capabilityFlags&capSSL != 0 {
		if err := c.upgradeSSL(opts.TLS); err != nil {
			_ = netConn.Close()
			return nil, err
		}
	}
	// Negotiate the compression capability bits now, since they must be
	// reflected in the handshake response authenticate() is about to send;
	// the compressed framing itself is not switched on until after
	// authentication completes (the handshake response and auth exchange
	// are always sent uncompressed, spec §4.2/§4.3).
	compressAlgo := ""
	if opts.Compress {
		algo := opts.CompressAlgorithm
		if algo == "" {
			algo = "zlib"
		}
		if algo == "zstd" && c.hs.capabilityFlags&capZstdCompressionAlgorithm != 0 {
			c.capabilities |= capZstdCompressionAlgorithm | capCompress
			compressAlgo = "zstd"
		} else if c.hs.capabilityFlags&capCompress != 0 {
			c.capabilities |= capCompress
			compressAlgo = "zlib"
		}
	}

	if err := c.authenticate(opts.Username, opts.Password, opts.Database); err != nil {
		_ = netConn.Close()
		return nil, err
	}

	if compressAlgo != "" {
		cw, err := newCompressedReadWriter(c.rw, compressAlgo)
		if err != nil {
			_ = netConn.Close()
			return nil, err
		}
		c.rw = cw
	}

	logEvent(c.logger, "connected", logrus.Fields{"addr": opts.Address, "plugin": c.hs.authPluginName})
	return c, nil
}

func (c *Conn) readHandshake(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.netConn.SetReadDeadline(dl)
		defer c.netConn.SetReadDeadline(time.Time{})
	}
	r := newReader(c.rw, &c.seq)
	if err := c.hs.decode(r); err != nil {
		return err
	}
	c.hs.capabilityFlags &^= capSessionTrack
	return nil
}

func (c *Conn) upgradeSSL(cfg *TLSConfig) error {
	w := newWriter(c.rw, &c.seq)
	if err := (sslRequest{
		capabilityFlags: c.capabilities,
		maxPacketSize:   maxPacketSize,
		characterSet:    c.hs.characterSet,
	}).encode(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	c.capabilities |= capSSL
	tlsConf := &tls.Config{
		RootCAs:            cfg.RootCAs,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         cfg.ServerName,
	}
	tlsConn := tls.Client(c.netConn, tlsConf)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}
	c.rw = tlsConn
	return nil
}

// acquire enforces the single-owner-per-connection invariant (spec §5):
// only one command may be in flight at a time.
func (c *Conn) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case modeClosed:
		return ErrConnectionClosed
	case modeIdle:
		c.mode = modeCommand
		return nil
	default:
		return ErrConnectionBusy
	}
}

// release transitions out of modeCommand/modeReadingRows/modeLocalInfile
// back to next, unless fail() has already moved the connection to
// modeClosed — a closed connection never goes back to idle.
func (c *Conn) release(next mode) {
	c.mu.Lock()
	if c.mode != modeClosed {
		c.mode = next
	}
	c.mu.Unlock()
}

func (c *Conn) write(event interface{ encode(w *writer) error }) error {
	w := newWriter(c.rw, &c.seq)
	if err := event.encode(w); err != nil {
		return err
	}
	return w.Close()
}

// resetSeq restarts the sequence id at 0, per spec §4.4 ("sequence id
// resets to 0 at the start of every command"). When compression is
// active, the compressed frame carries its own independent sequence
// counter (spec §4.2) that must be reset alongside it.
func (c *Conn) resetSeq() {
	c.seq = 0
	if cw, ok := c.rw.(*compressedReadWriter); ok {
		cw.resetSeq()
	}
}

// writeCommand resets the sequence id and sends a single-packet command,
// per spec §4.4 ("sequence id resets to 0 at the start of every command").
func (c *Conn) writeCommand(cmd byte, payload []byte) error {
	c.resetSeq()
	w := newWriter(c.rw, &c.seq)
	w.int1(cmd)
	w.Write(payload)
	return w.Close()
}

func (c *Conn) deadline() time.Time {
	if c.writeTimeout == 0 && c.readTimeout == 0 {
		return time.Time{}
	}
	max := c.writeTimeout
	if c.readTimeout > max {
		max = c.readTimeout
	}
	return time.Now().Add(max)
}

// Ping sends COM_PING and returns nil if the server is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release(modeIdle)

	if dl, ok := ctx.Deadline(); ok {
		_ = c.netConn.SetDeadline(dl)
		defer c.netConn.SetDeadline(time.Time{})
	}
	if err := c.writeCommand(comPing, nil); err != nil {
		c.fail()
		return err
	}
	_, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities)
	if err != nil {
		if _, ok := err.(*ServerError); !ok {
			c.fail()
		}
	}
	return err
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.mode == modeClosed {
		c.mu.Unlock()
		return nil
	}
	c.mode = modeClosed
	c.mu.Unlock()

	_ = c.writeCommand(comQuit, nil)
	return c.netConn.Close()
}

// fail marks the connection unusable after a protocol-level error (e.g.
// ErrSequenceDesync) from which the state machine cannot recover.
func (c *Conn) fail() {
	c.mu.Lock()
	c.mode = modeClosed
	c.mu.Unlock()
	_ = c.netConn.Close()
}

// Query executes a SQL statement using the text protocol (spec §4.5) and
// returns the resulting rows, or nil if the statement produced no result
// set (e.g. an INSERT/UPDATE, reflected only in OK.affectedRows).
func (c *Conn) Query(ctx context.Context, query string) (*Rows, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.netConn.SetDeadline(dl)
	} else {
		_ = c.netConn.SetDeadline(c.deadline())
	}

	if err := c.writeCommand(comQuery, []byte(query)); err != nil {
		c.fail()
		return nil, err
	}
	return c.readQueryResponse()
}

// Exec is a convenience wrapper over Query for statements that do not
// return rows; it drains and discards any result set the server still
// sends (e.g. for a SELECT run through Exec by mistake).
func (c *Conn) Exec(ctx context.Context, query string) (affectedRows, lastInsertID uint64, err error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return 0, 0, err
	}
	if rows == nil {
		return c.lastOK.affectedRows, c.lastOK.lastInsertID, nil
	}
	defer rows.Close()
	for rows.Next() {
	}
	return 0, 0, rows.Err()
}
