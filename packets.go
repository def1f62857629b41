package mysql

// Generic response packet markers (spec §4.4).
const (
	okMarker  = 0x00
	eofMarker = 0xfe
	errMarker = 0xff
)

// okPacket is the server's acknowledgement of a successful command
// (spec §4.4). With CLIENT_DEPRECATE_EOF negotiated, a trailing result-set
// row stream also ends with an okPacket carrying the eofMarker header
// instead of a dedicated EOF_Packet.
type okPacket struct {
	affectedRows uint64
	lastInsertID uint64
	statusFlags  uint16
	warnings     uint16
	info         string
	sessionState string
}

func (e *okPacket) decode(r *reader, capabilities uint32) error {
	header := r.int1()
	if r.err != nil {
		return r.err
	}
	if header != okMarker && header != eofMarker {
		return newProtocolError("okPacket: unexpected header 0x%02x", header)
	}
	e.affectedRows = r.intN()
	e.lastInsertID = r.intN()
	if capabilities&capProtocol41 != 0 {
		e.statusFlags = r.int2()
		e.warnings = r.int2()
	} else if capabilities&capTransactions != 0 {
		e.statusFlags = r.int2()
	}
	if r.err != nil {
		return r.err
	}
	if !r.more() {
		return nil
	}
	if capabilities&capSessionTrack != 0 {
		e.info = r.stringN()
		if e.statusFlags&statusSessionStateChanged != 0 {
			e.sessionState = r.stringN()
		}
	} else {
		e.info = r.stringEOF()
	}
	return r.err
}

const statusSessionStateChanged uint16 = 0x4000

// eofPacket terminates a column-definition or row sequence on servers that
// did not negotiate CLIENT_DEPRECATE_EOF.
//
// https://dev.mysql.com/doc/internals/en/packet-EOF_Packet.html
type eofPacket struct {
	warnings    uint16
	statusFlags uint16
}

func (e *eofPacket) decode(r *reader, capabilities uint32) error {
	header := r.int1()
	if r.err != nil {
		return r.err
	}
	if header != eofMarker {
		return newProtocolError("eofPacket: unexpected header 0x%02x", header)
	}
	if capabilities&capProtocol41 != 0 {
		e.warnings = r.int2()
		e.statusFlags = r.int2()
	}
	return r.err
}

// errPacket carries a server-side failure (spec §4.4).
//
// https://dev.mysql.com/doc/internals/en/packet-ERR_Packet.html
type errPacket struct {
	errorCode    uint16
	sqlState     string
	errorMessage string
}

func (e *errPacket) decode(r *reader, capabilities uint32) error {
	header := r.int1()
	if r.err != nil {
		return r.err
	}
	if header != errMarker {
		return newProtocolError("errPacket: unexpected header 0x%02x", header)
	}
	e.errorCode = r.int2()
	if capabilities&capProtocol41 != 0 {
		r.skip(1) // sql state marker, always '#'
		e.sqlState = r.string(5)
	}
	e.errorMessage = r.stringEOF()
	return r.err
}

func (e *errPacket) asError() error {
	return &ServerError{Code: e.errorCode, SQLState: e.sqlState, Message: e.errorMessage}
}

// readOKOrErr reads a generic OK/ERR response and returns the decoded
// okPacket, or the ServerError if the server reported a failure.
func readOKOrErr(r *reader, capabilities uint32) (*okPacket, error) {
	b, err := r.peek()
	if err != nil {
		return nil, err
	}
	switch b {
	case okMarker:
		ok := &okPacket{}
		if err := ok.decode(r, capabilities); err != nil {
			return nil, err
		}
		return ok, nil
	case errMarker:
		ep := &errPacket{}
		if err := ep.decode(r, capabilities); err != nil {
			return nil, err
		}
		return nil, ep.asError()
	default:
		return nil, newProtocolError("readOKOrErr: unexpected marker 0x%02x", b)
	}
}
