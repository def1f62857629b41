package mysql

import "testing"

func TestMysqlNativePasswordHash(t *testing.T) {
	scramble := []byte("01234567890123456789")
	h1 := mysqlNativePasswordHash([]byte("secret"), scramble)
	if len(h1) != 20 {
		t.Fatalf("hash length = %d, want 20", len(h1))
	}
	h2 := mysqlNativePasswordHash([]byte("secret"), scramble)
	if string(h1) != string(h2) {
		t.Fatal("hash is not deterministic for the same inputs")
	}
	h3 := mysqlNativePasswordHash([]byte("different"), scramble)
	if string(h1) == string(h3) {
		t.Fatal("different passwords produced the same hash")
	}
	if got := mysqlNativePasswordHash(nil, scramble); got != nil {
		t.Fatalf("empty password should hash to nil, got %v", got)
	}
}

func TestDecodePEM_rejectsGarbage(t *testing.T) {
	if _, err := decodePEM([]byte("not a pem block")); err == nil {
		t.Fatal("expected an error decoding non-PEM data")
	}
}
