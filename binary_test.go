package mysql

import (
	"bytes"
	"testing"
	"time"
)

func TestDecodeBinaryValue_integers(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	w.int1(0xff)        // TINY, signed -1
	w.int4(4000000000)  // LONG, unsigned
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)

	v := decodeBinaryValue(r, Column{Type: TypeTiny})
	if v.Kind != KindInt64 || v.Int64 != -1 {
		t.Fatalf("TINY: got %+v", v)
	}
	v = decodeBinaryValue(r, Column{Type: TypeLong, Unsigned: true})
	if v.Kind != KindUint64 || v.Uint64 != 4000000000 {
		t.Fatalf("LONG unsigned: got %+v", v)
	}
	if r.err != nil {
		t.Fatal(r.err)
	}
}

func TestDecodeBinaryValue_string(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	w.stringN("hello")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	v := decodeBinaryValue(r, Column{Type: TypeVarString})
	if v.Kind != KindString || v.Str != "hello" {
		t.Fatalf("got %+v", v)
	}
}

func TestBinaryDate_roundtrip(t *testing.T) {
	want := time.Date(2024, time.March, 5, 13, 45, 7, 123000, time.UTC)
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	encodeBinaryDate(w, want, true)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	got := decodeBinaryDate(r)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestBinaryDate_zero(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	encodeBinaryDate(w, time.Time{}, true)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	got := decodeBinaryDate(r)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !got.IsZero() {
		t.Fatalf("got %v, want zero time", got)
	}
}

func TestBinaryTime_negativeRoundtrip(t *testing.T) {
	want := -(25*time.Hour + 3*time.Minute + 4*time.Second)
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	encodeBinaryTime(w, want)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	got := decodeBinaryTime(r)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParamType(t *testing.T) {
	cases := []struct {
		v        Value
		wantTyp  ColumnType
		wantUns  bool
	}{
		{Int64Value(-1), TypeLongLong, false},
		{Uint64Value(1), TypeLongLong, true},
		{StringValue("x"), TypeVarString, false},
		{NullValue(), TypeNull, false},
	}
	for _, c := range cases {
		typ, unsigned := paramType(c.v)
		if typ != c.wantTyp || unsigned != c.wantUns {
			t.Fatalf("paramType(%+v) = (%v, %v), want (%v, %v)", c.v, typ, unsigned, c.wantTyp, c.wantUns)
		}
	}
}
