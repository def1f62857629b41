package mysql

import "context"

// defaultLongDataThreshold is the default size at or above which Stmt.Execute sends a
// []byte/string parameter via COM_STMT_SEND_LONG_DATA instead of inline in
// the COM_STMT_EXECUTE packet (spec §4.6), keeping a single large
// parameter from dominating the execute packet alongside others.
const defaultLongDataThreshold = 1 << 20

// Stmt is a server-side prepared statement (spec §4.6).
type Stmt struct {
	conn      *Conn
	id        uint32
	numParams uint16
	columns   []Column

	// LongDataThreshold overrides defaultLongDataThreshold for this
	// statement; parameters at or above this size are sent as long data.
	LongDataThreshold int

	cursorExists bool
}

// Prepare sends COM_STMT_PREPARE and returns the resulting statement
// handle.
func (c *Conn) Prepare(ctx context.Context, query string) (*Stmt, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release(modeIdle)

	if err := c.writeCommand(comStmtPrepare, []byte(query)); err != nil {
		c.fail()
		return nil, err
	}
	r := newReader(c.rw, &c.seq)
	b, err := r.peek()
	if err != nil {
		c.fail()
		return nil, err
	}
	if b == errMarker {
		ep := &errPacket{}
		if err := ep.decode(r, c.capabilities); err != nil {
			c.fail()
			return nil, err
		}
		return nil, ep.asError()
	}
	if b != okMarker {
		c.fail()
		return nil, newProtocolError("Prepare: unexpected header 0x%02x", b)
	}

	r.skip(1)
	stmt := &Stmt{conn: c, LongDataThreshold: defaultLongDataThreshold}
	stmt.id = r.int4()
	numColumns := r.int2()
	stmt.numParams = r.int2()
	r.skip(1) // filler
	warnings := r.int2()
	_ = warnings
	if r.err != nil {
		c.fail()
		return nil, r.err
	}

	for i := uint16(0); i < stmt.numParams; i++ {
		r.packetReader().reset()
		cd := columnDef{}
		if err := cd.decode(r); err != nil {
			c.fail()
			return nil, err
		}
	}
	if stmt.numParams > 0 && c.capabilities&capDeprecateEOF == 0 {
		r.packetReader().reset()
		eof := eofPacket{}
		if err := eof.decode(r, c.capabilities); err != nil {
			c.fail()
			return nil, err
		}
	}
	for i := uint16(0); i < numColumns; i++ {
		r.packetReader().reset()
		cd := columnDef{}
		if err := cd.decode(r); err != nil {
			c.fail()
			return nil, err
		}
		stmt.columns = append(stmt.columns, columnFromDef(cd))
	}
	if numColumns > 0 && c.capabilities&capDeprecateEOF == 0 {
		r.packetReader().reset()
		eof := eofPacket{}
		if err := eof.decode(r, c.capabilities); err != nil {
			c.fail()
			return nil, err
		}
	}
	return stmt, nil
}

// sendLongData streams a parameter via COM_STMT_SEND_LONG_DATA ahead of
// COM_STMT_EXECUTE, used for parameters at or above LongDataThreshold.
func (s *Stmt) sendLongData(paramID uint16, data []byte) error {
	c := s.conn
	c.resetSeq()
	w := newWriter(c.rw, &c.seq)
	w.int1(comStmtSendLongData)
	w.int4(s.id)
	w.int2(paramID)
	w.Write(data)
	return w.Close()
}

func paramBytes(v Value) ([]byte, bool) {
	switch v.Kind {
	case KindBytes:
		return v.Bytes, true
	case KindString:
		return []byte(v.Str), true
	}
	return nil, false
}

// Execute binds params and sends COM_STMT_EXECUTE, returning the
// resulting Rows (nil if the statement produced no result set).
func (s *Stmt) Execute(ctx context.Context, params ...Value) (*Rows, error) {
	c := s.conn
	if err := c.acquire(); err != nil {
		return nil, err
	}

	for i, p := range params {
		if b, ok := paramBytes(p); ok && len(b) >= s.LongDataThreshold {
			if err := s.sendLongData(uint16(i), b); err != nil {
				c.fail()
				return nil, err
			}
		}
	}

	longData := make([]bool, len(params))
	for i, p := range params {
		if b, ok := paramBytes(p); ok && len(b) >= s.LongDataThreshold {
			longData[i] = true
		}
	}

	c.resetSeq()
	w := newWriter(c.rw, &c.seq)
	w.int1(comStmtExecute)
	w.int4(s.id)
	w.int1(0x00) // cursor type: CURSOR_TYPE_NO_CURSOR
	w.int4(1)    // iteration count, always 1

	if len(params) > 0 {
		nullBitmap := make([]byte, (len(params)+7)/8)
		for i, p := range params {
			if p.IsNull() {
				nullBitmap[i/8] |= 1 << uint(i%8)
			}
		}
		w.Write(nullBitmap)
		w.int1(1) // new-params-bound flag

		for i, p := range params {
			typ, unsigned := paramType(p)
			if longData[i] {
				typ, unsigned = TypeBlob, false
			}
			flag := uint8(0)
			if unsigned {
				flag = 0x80
			}
			w.int1(uint8(typ))
			w.int1(flag)
		}
		for i, p := range params {
			if longData[i] || p.IsNull() {
				continue
			}
			writeBinaryParamValue(w, p)
		}
	}
	if err := w.Close(); err != nil {
		c.fail()
		return nil, err
	}
	return c.readStmtExecuteResponse(s)
}

func (c *Conn) readStmtExecuteResponse(s *Stmt) (*Rows, error) {
	r := newReader(c.rw, &c.seq)
	b, err := r.peek()
	if err != nil {
		c.fail()
		return nil, err
	}
	switch b {
	case okMarker:
		ok := &okPacket{}
		if err := ok.decode(r, c.capabilities); err != nil {
			c.fail()
			return nil, err
		}
		c.lastOK = *ok
		c.release(modeIdle)
		return nil, nil
	case errMarker:
		ep := &errPacket{}
		if err := ep.decode(r, c.capabilities); err != nil {
			c.fail()
			return nil, err
		}
		c.release(modeIdle)
		return nil, ep.asError()
	default:
		ncol := r.intN()
		if r.err != nil {
			c.fail()
			return nil, r.err
		}
		columns := make([]Column, 0, ncol)
		for i := uint64(0); i < ncol; i++ {
			r.packetReader().reset()
			cd := columnDef{}
			if err := cd.decode(r); err != nil {
				c.fail()
				return nil, err
			}
			columns = append(columns, columnFromDef(cd))
		}
		if c.capabilities&capDeprecateEOF == 0 {
			r.packetReader().reset()
			eof := eofPacket{}
			if err := eof.decode(r, c.capabilities); err != nil {
				c.fail()
				return nil, err
			}
			s.cursorExists = eof.statusFlags&statusCursorExists != 0
		}
		// defaultClientCapabilities never sets capDeprecateEOF, so this
		// branch always runs and cursorExists is always populated; it is
		// coupled to that choice, not to any per-call condition.
		rs := &Rows{conn: c, r: r, columns: columns, binary: true}
		c.release(modeReadingRows)
		return rs, nil
	}
}

// HasCursor reports whether the server opened a cursor for the most
// recent Execute (SERVER_STATUS_CURSOR_EXISTS).
func (s *Stmt) HasCursor() bool { return s.cursorExists }

// Fetch requests up to n more rows from an open server-side cursor via
// COM_STMT_FETCH. Most callers never need this: absent any Fetch call,
// Execute's result set already streams the full row sequence directly.
func (s *Stmt) Fetch(ctx context.Context, n int) (*Rows, error) {
	c := s.conn
	if err := c.acquire(); err != nil {
		return nil, err
	}
	payload := make([]byte, 8)
	payload[0], payload[1], payload[2], payload[3] = byte(s.id), byte(s.id>>8), byte(s.id>>16), byte(s.id>>24)
	payload[4], payload[5], payload[6], payload[7] = byte(n), byte(n>>8), byte(n>>16), byte(n>>24)
	if err := c.writeCommand(comStmtFetch, payload); err != nil {
		c.fail()
		return nil, err
	}
	r := newReader(c.rw, &c.seq)
	rs := &Rows{conn: c, r: r, columns: s.columns, binary: true}
	c.release(modeReadingRows)
	return rs, nil
}

// Reset sends COM_STMT_RESET, clearing any long-data buffered on the
// server for a subsequent Execute with different parameters.
func (s *Stmt) Reset(ctx context.Context) error {
	c := s.conn
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release(modeIdle)
	payload := []byte{byte(s.id), byte(s.id >> 8), byte(s.id >> 16), byte(s.id >> 24)}
	if err := c.writeCommand(comStmtReset, payload); err != nil {
		c.fail()
		return err
	}
	_, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities)
	return err
}

// Close sends COM_STMT_CLOSE, which the server never acknowledges.
func (s *Stmt) Close() error {
	c := s.conn
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release(modeIdle)
	payload := []byte{byte(s.id), byte(s.id >> 8), byte(s.id >> 16), byte(s.id >> 24)}
	return c.writeCommand(comStmtClose, payload)
}
