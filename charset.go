package mysql

// charset ids this client cares about directly; the full registry lives
// server-side and is never needed in full by the client.
//
// https://dev.mysql.com/doc/dev/mysql-server/latest/page_protocol_basic_character_set.html
const (
	charsetUTF8MB4GeneralCI uint16 = 45
	charsetUTF8MB4Bin       uint16 = 46
	charsetBinary           uint16 = 63
	charsetUTF8GeneralCI    uint16 = 33
)

// defaultCharset is offered in the handshake response; Options has no
// field to pick another one.
const defaultCharset uint8 = uint8(charsetUTF8MB4GeneralCI)
