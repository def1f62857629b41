package mysql

import "io"

// Rows is the result of a query that produced a result set: first the
// column definitions, then zero or more rows, terminated by an EOF/OK
// packet (spec §4.5). Only one Rows may be active per Conn at a time; the
// connection stays in modeReadingRows until Close or exhaustion returns it
// to modeIdle.
type Rows struct {
	conn     *Conn
	r        *reader
	columns  []Column
	row      []Value
	err      error
	done     bool
	moreResults bool

	// binary is set for result sets produced by Stmt.Execute/Fetch, which
	// use the binary row format (spec §4.6) instead of the text protocol.
	binary bool
}

func (c *Conn) readQueryResponse() (*Rows, error) {
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
		if ok.statusFlags&statusMoreResultsExists != 0 {
			// caller must call Query again (or a future NextResult) to
			// drain subsequent result sets; state returns to idle so the
			// next command can be issued.
		}
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
	case 0xfb:
		// LOCAL INFILE request: the remainder of this packet is the
		// filename the server wants streamed back (spec §4.7).
		filename := r.stringEOF()
		if r.err != nil {
			c.fail()
			return nil, r.err
		}
		if err := c.handleLocalInfile(filename); err != nil {
			c.fail()
			return nil, err
		}
		if c.lastOK.statusFlags&statusMoreResultsExists != 0 {
			c.fail()
			return nil, newProtocolError("LOCAL INFILE combined with multiple result sets")
		}
		c.release(modeIdle)
		return nil, nil
	default:
		rs := &Rows{conn: c, r: r}
		if err := rs.readColumns(); err != nil {
			c.fail()
			return nil, err
		}
		c.release(modeReadingRows)
		return rs, nil
	}
}

func (rs *Rows) readColumns() error {
	r := rs.r
	ncol := r.intN()
	if r.err != nil {
		return r.err
	}
	if r.more() {
		return ErrMalformedPacket
	}
	for i := uint64(0); i < ncol; i++ {
		r.packetReader().reset()
		cd := columnDef{}
		if err := cd.decode(r); err != nil {
			return err
		}
		if r.more() {
			return ErrMalformedPacket
		}
		rs.columns = append(rs.columns, columnFromDef(cd))
	}
	if rs.conn.capabilities&capDeprecateEOF == 0 {
		r.packetReader().reset()
		eof := eofPacket{}
		if err := eof.decode(r, rs.conn.capabilities); err != nil {
			return err
		}
	}
	return nil
}

// Columns reports the decoded column metadata for this result set.
func (rs *Rows) Columns() []Column { return rs.columns }

// Next advances to the next row, decoding it with the text protocol
// (spec §4.5), or with the binary protocol for result sets produced by
// Stmt.Execute/Fetch. It returns false at EOF or on error; check Err
// afterward.
func (rs *Rows) Next() bool {
	if rs.done || rs.err != nil {
		return false
	}
	r := rs.r
	r.packetReader().reset()
	b, err := r.peek()
	if err != nil {
		rs.err = err
		rs.finish()
		return false
	}
	switch b {
	case eofMarker:
		if rs.conn.capabilities&capDeprecateEOF != 0 {
			ok := &okPacket{}
			if err := ok.decode(r, rs.conn.capabilities); err != nil {
				rs.err = err
				rs.finish()
				return false
			}
			rs.conn.lastOK = *ok
			rs.moreResults = ok.statusFlags&statusMoreResultsExists != 0
		} else {
			eof := eofPacket{}
			if err := eof.decode(r, rs.conn.capabilities); err != nil {
				rs.err = err
				rs.finish()
				return false
			}
			rs.moreResults = eof.statusFlags&statusMoreResultsExists != 0
		}
		rs.done = true
		rs.finish()
		return false
	case errMarker:
		ep := &errPacket{}
		if err := ep.decode(r, rs.conn.capabilities); err != nil {
			rs.err = err
		} else {
			rs.err = ep.asError()
		}
		rs.done = true
		rs.finish()
		return false
	default:
		if rs.binary {
			row, err := decodeBinaryRow(r, rs.columns)
			if err != nil {
				rs.err = err
				rs.finish()
				return false
			}
			rs.row = row
			return true
		}
		row := make([]Value, len(rs.columns))
		for i := range row {
			marker, err := r.peek()
			if err != nil {
				rs.err = err
				rs.finish()
				return false
			}
			if marker == 0xfb {
				r.skip(1)
				row[i] = nullValue()
				continue
			}
			s := r.stringN()
			if r.err != nil {
				rs.err = r.err
				rs.finish()
				return false
			}
			row[i] = textValue(rs.columns[i], s)
		}
		rs.row = row
		return true
	}
}

// decodeBinaryRow decodes Protocol::BinaryResultsetRow (spec §4.6): a
// leading 0x00 packet header, a null bitmap offset by 2 (bits 0 and 1 are
// reserved), then the non-null column values in order.
func decodeBinaryRow(r *reader, columns []Column) ([]Value, error) {
	r.skip(1) // packet header, always 0x00
	nullBitmapSize := (len(columns) + 7 + 2) / 8
	nullBitmap := r.bytes(nullBitmapSize)
	if r.err != nil {
		return nil, r.err
	}
	row := make([]Value, len(columns))
	for i, col := range columns {
		bit := i + 2
		if nullBitmap[bit/8]&(1<<uint(bit%8)) != 0 {
			row[i] = nullValue()
			continue
		}
		row[i] = decodeBinaryValue(r, col)
		if r.err != nil {
			return nil, r.err
		}
	}
	return row, nil
}

// textValue interprets a text-protocol string per the column's declared
// type, producing the same Value shapes the binary protocol would.
func textValue(col Column, s string) Value {
	switch col.Type {
	case TypeTiny, TypeShort, TypeInt24, TypeLong, TypeLongLong, TypeYear:
		if col.Unsigned {
			var v uint64
			for _, ch := range s {
				if ch < '0' || ch > '9' {
					return stringValue(s)
				}
				v = v*10 + uint64(ch-'0')
			}
			return uint64Value(v)
		}
		neg := false
		i := 0
		if len(s) > 0 && s[0] == '-' {
			neg, i = true, 1
		}
		var v int64
		for ; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return stringValue(s)
			}
			v = v*10 + int64(s[i]-'0')
		}
		if neg {
			v = -v
		}
		return int64Value(v)
	case TypeFloat, TypeDouble:
		return parseFloatValue(s)
	case TypeNewDecimal, TypeDecimal:
		return decimalValue(s)
	case TypeDate:
		t, err := parseDate(s)
		if err != nil {
			return stringValue(s)
		}
		return dateValue(t)
	case TypeDateTime, TypeTimestamp, TypeDateTime2, TypeTimestamp2:
		t, err := parseDateTime(s)
		if err != nil {
			return stringValue(s)
		}
		return dateTimeValue(t)
	case TypeTime, TypeTime2:
		d, err := parseDuration(s)
		if err != nil {
			return stringValue(s)
		}
		return timeValue(d)
	default:
		if col.Charset == charsetBinary {
			return bytesValue([]byte(s))
		}
		return stringValue(s)
	}
}

// Row returns the most recently decoded row, valid after Next returns
// true.
func (rs *Rows) Row() []Value { return rs.row }

// Err reports the first error encountered while reading, if any.
func (rs *Rows) Err() error { return rs.err }

// MoreResults reports whether additional result sets follow this one
// (SERVER_MORE_RESULTS_EXISTS), for multi-statement queries.
func (rs *Rows) MoreResults() bool { return rs.moreResults }

// Close drains any unread rows and returns the connection to modeIdle.
// Safe to call multiple times.
func (rs *Rows) Close() error {
	if rs.conn == nil {
		return nil
	}
	for !rs.done && rs.err == nil {
		rs.Next()
	}
	rs.finish()
	if rs.err == io.EOF {
		return nil
	}
	return rs.err
}

func (rs *Rows) finish() {
	if rs.conn != nil {
		rs.conn.release(modeIdle)
		rs.conn = nil
	}
}
