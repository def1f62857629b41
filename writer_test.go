package mysql

import (
	"bytes"
	"testing"
)

func TestWriter_intN_roundtrip(t *testing.T) {
	cases := []uint64{0, 1, 250, 251, 65535, 65536, 1<<24 - 1, 1 << 24, 1 << 40}
	for _, v := range cases {
		var buf bytes.Buffer
		var seq uint8
		w := newWriter(&buf, &seq)
		if err := w.intN(v); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		var rseq uint8
		r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
		got := r.intN()
		if r.err != nil {
			t.Fatal(r.err)
		}
		if got != v {
			t.Fatalf("intN roundtrip: got %d want %d", got, v)
		}
	}
}

func TestWriter_stringN_roundtrip(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	if err := w.stringN("hello, world"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	got := r.stringN()
	if r.err != nil {
		t.Fatal(r.err)
	}
	if got != "hello, world" {
		t.Fatalf("got %q", got)
	}
}

// TestWriter_splitsAtMaxPacketSize exercises the chunking path: a payload
// larger than maxPacketSize must be split into a full packet followed by a
// terminating packet, with the sequence id incrementing across both.
func TestWriter_splitsAtMaxPacketSize(t *testing.T) {
	var buf bytes.Buffer
	var seq uint8
	w := newWriter(&buf, &seq)
	payload := make([]byte, maxPacketSize+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if seq != 2 {
		t.Fatalf("seq = %d, want 2 (one full packet + one short packet)", seq)
	}

	var rseq uint8
	r := newReader(bytes.NewReader(buf.Bytes()), &rseq)
	got := r.bytes(len(payload))
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload did not survive the packet split")
	}
}
