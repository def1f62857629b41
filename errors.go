package mysql

import (
	"fmt"

	"github.com/pkg/errors"
)

// ServerError is returned when the server responds with an ERR_Packet
// (spec §4.4/§7). Code and SQLState mirror the wire fields verbatim so
// callers can switch on them without reparsing a message string.
type ServerError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *ServerError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("mysql: error %d (%s): %s", e.Code, e.SQLState, e.Message)
	}
	return fmt.Sprintf("mysql: error %d: %s", e.Code, e.Message)
}

// ProtocolError indicates the server sent bytes this client cannot make
// sense of: a bad marker byte or a combination of flags the state machine
// does not allow (spec §4.4 edge cases). A sequence desync is reported
// separately, as ErrSequenceDesync.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return "mysql: protocol error: " + e.msg }

func newProtocolError(format string, args ...interface{}) error {
	return errors.WithStack(&ProtocolError{msg: fmt.Sprintf(format, args...)})
}

// ErrConnectionBusy is returned by any (*Conn) method invoked while another
// command is already in flight on the same connection (spec §5 single
// owner invariant).
var ErrConnectionBusy = errors.New("mysql: connection busy")

// ErrConnectionClosed is returned once a connection has been closed or has
// failed unrecoverably (e.g. after ErrSequenceDesync).
var ErrConnectionClosed = errors.New("mysql: connection closed")

// ErrLocalInfileDenied is returned when the server requests a local file
// via LOAD DATA LOCAL INFILE but Options.AllowLocalInfile was not set.
var ErrLocalInfileDenied = errors.New("mysql: LOAD DATA LOCAL INFILE denied by client configuration")

// ErrMalformedPacket indicates a packet whose shape does not match what
// the protocol state expected (unexpected length, missing terminator).
var ErrMalformedPacket = errors.New("mysql: malformed packet")

func wrapErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
