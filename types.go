package mysql

import "fmt"

// ColumnType identifies a column's wire type (spec §4.5/§4.6).
//
// https://dev.mysql.com/doc/internals/en/com-query-response.html#packet-Protocol::ColumnType
type ColumnType uint8

const (
	TypeDecimal    ColumnType = 0x00
	TypeTiny       ColumnType = 0x01
	TypeShort      ColumnType = 0x02
	TypeLong       ColumnType = 0x03
	TypeFloat      ColumnType = 0x04
	TypeDouble     ColumnType = 0x05
	TypeNull       ColumnType = 0x06
	TypeTimestamp  ColumnType = 0x07
	TypeLongLong   ColumnType = 0x08
	TypeInt24      ColumnType = 0x09
	TypeDate       ColumnType = 0x0a
	TypeTime       ColumnType = 0x0b
	TypeDateTime   ColumnType = 0x0c
	TypeYear       ColumnType = 0x0d
	TypeNewDate    ColumnType = 0x0e
	TypeVarchar    ColumnType = 0x0f
	TypeBit        ColumnType = 0x10
	TypeTimestamp2 ColumnType = 0x11
	TypeDateTime2  ColumnType = 0x12
	TypeTime2      ColumnType = 0x13
	TypeJSON       ColumnType = 0xf5
	TypeNewDecimal ColumnType = 0xf6
	TypeEnum       ColumnType = 0xf7
	TypeSet        ColumnType = 0xf8
	TypeTinyBlob   ColumnType = 0xf9
	TypeMediumBlob ColumnType = 0xfa
	TypeLongBlob   ColumnType = 0xfb
	TypeBlob       ColumnType = 0xfc
	TypeVarString  ColumnType = 0xfd
	TypeString     ColumnType = 0xfe
	TypeGeometry   ColumnType = 0xff
)

var typeNames = map[ColumnType]string{
	TypeDecimal: "decimal", TypeTiny: "tiny", TypeShort: "short",
	TypeLong: "long", TypeFloat: "float", TypeDouble: "double",
	TypeNull: "null", TypeTimestamp: "timestamp", TypeLongLong: "longLong",
	TypeInt24: "int24", TypeDate: "date", TypeTime: "time",
	TypeDateTime: "dateTime", TypeYear: "year", TypeNewDate: "newDate",
	TypeVarchar: "varchar", TypeBit: "bit", TypeTimestamp2: "timestamp2",
	TypeDateTime2: "dateTime2", TypeTime2: "time2", TypeJSON: "json",
	TypeNewDecimal: "newDecimal", TypeEnum: "enum", TypeSet: "set",
	TypeTinyBlob: "tinyBlob", TypeMediumBlob: "mediumBlob",
	TypeLongBlob: "longBlob", TypeBlob: "blob", TypeVarString: "varString",
	TypeString: "string", TypeGeometry: "geometry",
}

func (t ColumnType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("0x%02x", uint8(t))
}

// field flags (spec §4.5 column definition).
const (
	flagNotNull     uint16 = 0x0001
	flagPriKey      uint16 = 0x0002
	flagUniqueKey   uint16 = 0x0004
	flagMultipleKey uint16 = 0x0008
	flagUnsigned    uint16 = 0x0020
	flagZerofill    uint16 = 0x0040
	flagBinary      uint16 = 0x0080
	flagEnum        uint16 = 0x0100
	flagAutoInc     uint16 = 0x0200
	flagSet         uint16 = 0x0800
)

// columnDef is a single entry of Protocol::ColumnDefinition41.
//
// https://dev.mysql.com/doc/internals/en/com-query-response.html#packet-Protocol::ColumnDefinition41
type columnDef struct {
	schema       string
	table        string
	orgTable     string
	name         string
	orgName      string
	charset      uint16
	columnLength uint32
	typ          ColumnType
	flags        uint16
	decimals     uint8
}

func (cd *columnDef) decode(r *reader) error {
	_ = r.stringN() // catalog, always "def"
	cd.schema = r.stringN()
	cd.table = r.stringN()
	cd.orgTable = r.stringN()
	cd.name = r.stringN()
	cd.orgName = r.stringN()
	_ = r.intN() // length of fixed-length fields below, always 0x0c
	cd.charset = r.int2()
	cd.columnLength = r.int4()
	cd.typ = ColumnType(r.int1())
	cd.flags = r.int2()
	cd.decimals = r.int1()
	r.skip(2) // filler
	return r.err
}

func (cd *columnDef) unsigned() bool { return cd.flags&flagUnsigned != 0 }

// Column describes a decoded column: its wire type plus the contextual
// metadata (unsigned-ness, decimal scale, charset) needed to interpret the
// bytes that follow it in a binary-protocol row (spec §4.6).
type Column struct {
	Name         string
	Type         ColumnType
	Unsigned     bool
	Decimals     uint8
	ColumnLength uint32
	Charset      uint16
}

func columnFromDef(cd columnDef) Column {
	return Column{
		Name:         cd.name,
		Type:         cd.typ,
		Unsigned:     cd.unsigned(),
		Decimals:     cd.decimals,
		ColumnLength: cd.columnLength,
		Charset:      cd.charset,
	}
}
