package mysql

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"
)

func newPacket(size int, seq byte) (packet, payload []byte) {
	b := make([]byte, headerSize+size)
	b[0] = byte(size)
	b[1] = byte(size >> 8)
	b[2] = byte(size >> 16)
	b[3] = seq
	if size > 0 {
		b[4] = 0x11
		b[len(b)-1] = 0x22
	}
	return b, b[4 : 4+size]
}

func TestReader_LessThanMaxPacketSize(t *testing.T) {
	first, firstPayload := newPacket(10, 0)
	var seq uint8
	r := newReader(bytes.NewReader(first), &seq)
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, firstPayload) {
		t.Fatalf("got %v want %v", got, firstPayload)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
}

func TestReader_MultipleOfMaxPayloadSize(t *testing.T) {
	first, firstPayload := newPacket(maxPacketSize, 0)
	last, lastPayload := newPacket(0, 1)
	var seq uint8
	r := newReader(io.MultiReader(bytes.NewReader(first), bytes.NewReader(last)), &seq)
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte(nil), firstPayload...), lastPayload...)
	if !bytes.Equal(got, want) {
		t.Fatal("payload did not match across the maxPacketSize boundary")
	}
}

func TestReader_SequenceDesync(t *testing.T) {
	first, _ := newPacket(5, 7) // reader expects seq 0, packet carries 7
	var seq uint8
	r := newReader(bytes.NewReader(first), &seq)
	_, err := ioutil.ReadAll(r)
	if err != ErrSequenceDesync {
		t.Fatalf("got %v, want ErrSequenceDesync", err)
	}
}

func TestReader_stringNull(t *testing.T) {
	data := append([]byte("hello"), 0)
	data = append(append(data, []byte("world")...), 0)
	packet, _ := newPacketData(data)
	var seq uint8
	r := newReader(bytes.NewReader(packet), &seq)

	if s := r.stringNull(); s != "hello" {
		t.Fatalf("got %q want hello", s)
	}
	if s := r.stringNull(); s != "world" {
		t.Fatalf("got %q want world", s)
	}
	if r.err != nil {
		t.Fatal(r.err)
	}
}

func TestReader_intN(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x05}, 5},
		{[]byte{0xfc, 0x01, 0x01}, 0x0101},
		{[]byte{0xfd, 0x01, 0x00, 0x01}, 0x010001},
		{[]byte{0xfe, 1, 0, 0, 0, 0, 0, 0, 0}, 1},
	}
	for _, c := range cases {
		packet, _ := newPacketData(c.in)
		var seq uint8
		r := newReader(bytes.NewReader(packet), &seq)
		got := r.intN()
		if r.err != nil {
			t.Fatal(r.err)
		}
		if got != c.want {
			t.Fatalf("intN(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func newPacketData(data []byte) (packet, payload []byte) {
	b := make([]byte, headerSize+len(data))
	b[0] = byte(len(data))
	b[1] = byte(len(data) >> 8)
	b[2] = byte(len(data) >> 16)
	b[3] = 0
	copy(b[4:], data)
	return b, data
}
