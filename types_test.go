package mysql

import (
	"bytes"
	"testing"
)

func TestColumnType_String(t *testing.T) {
	if got := TypeVarchar.String(); got != "varchar" {
		t.Fatalf("got %q", got)
	}
	if got := ColumnType(0x77).String(); got != "0x77" {
		t.Fatalf("unknown type should render as hex, got %q", got)
	}
}

func TestColumnDef_decode(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	w.stringN("def")
	w.stringN("mydb")
	w.stringN("mytable")
	w.stringN("mytable")
	w.stringN("age")
	w.stringN("age")
	w.intN(0x0c)
	w.int2(charsetUTF8MB4GeneralCI)
	w.int4(11)
	w.int1(uint8(TypeLong))
	w.int2(flagUnsigned | flagNotNull)
	w.int1(0)
	w.Write([]byte{0, 0})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	cd := columnDef{}
	if err := cd.decode(r); err != nil {
		t.Fatal(err)
	}
	if cd.name != "age" || cd.typ != TypeLong || !cd.unsigned() {
		t.Fatalf("got %+v", cd)
	}

	col := columnFromDef(cd)
	if col.Name != "age" || !col.Unsigned || col.Type != TypeLong {
		t.Fatalf("columnFromDef: got %+v", col)
	}
}
