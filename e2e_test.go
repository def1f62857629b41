package mysql

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"
)

// These tests exercise the protocol against a live server and are skipped
// unless -mysql names one, mirroring the teacher's own opt-in integration
// test pattern.

var (
	mysqlFlag = flag.String("mysql", "", "mysql server used for testing, host:port")
	testUser  = flag.String("mysqluser", "root", "username for -mysql tests")
	testPass  = flag.String("mysqlpass", "", "password for -mysql tests")
	testDB    = flag.String("mysqldb", "", "database for -mysql tests")

	skipReason = `SKIPPED: pass -mysql flag to run this test
example: go test -mysql 127.0.0.1:3306 -mysqluser root -mysqlpass secret`
)

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

func testOptions(t *testing.T) Options {
	t.Helper()
	if *mysqlFlag == "" {
		t.Skip(skipReason)
	}
	return Options{
		Network:        "tcp",
		Address:        *mysqlFlag,
		Username:       *testUser,
		Password:       *testPass,
		Database:       *testDB,
		ConnectTimeout: 5 * time.Second,
	}
}

// Scenario 1: SELECT 42 via the text protocol.
func TestE2E_SelectLiteral(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Open(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, "SELECT 42")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	cols := rows.Columns()
	if len(cols) != 1 || cols[0].Name != "42" {
		t.Fatalf("columns = %+v, want one column named \"42\"", cols)
	}
	if !rows.Next() {
		t.Fatalf("expected one row, got none: %v", rows.Err())
	}
	if got := rows.Row()[0]; got.Kind != KindInt64 || got.Int64 != 42 {
		t.Fatalf("row = %+v, want Int64(42)", got)
	}
	if rows.Next() {
		t.Fatal("expected exactly one row")
	}
}

// Scenario 2: a UTF-8 literal decodes to the expected bytes.
func TestE2E_SelectUTF8Literal(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Open(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, "SELECT 'héllo'")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatalf("expected one row, got none: %v", rows.Err())
	}
	want := []byte{0x68, 0xc3, 0xa9, 0x6c, 0x6c, 0x6f}
	got := rows.Row()[0]
	if got.Str != string(want) {
		t.Fatalf("got %q (% x), want %q (% x)", got.Str, []byte(got.Str), string(want), want)
	}
}

// Scenario 3: DDL/DML affected-rows accounting and ordered read-back.
func TestE2E_CreateInsertSelect(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := Open(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS t"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := conn.Exec(ctx, "CREATE TABLE t(a INT)"); err != nil {
		t.Fatal(err)
	}
	affected, _, err := conn.Exec(ctx, "INSERT INTO t VALUES (1),(2)")
	if err != nil {
		t.Fatal(err)
	}
	if affected != 2 {
		t.Fatalf("affected = %d, want 2", affected)
	}

	rows, err := conn.Query(ctx, "SELECT a FROM t ORDER BY a")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var got []int64
	for rows.Next() {
		got = append(got, rows.Row()[0].Int64)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

// Scenario 4: prepared statement with bound parameters via the binary
// protocol.
func TestE2E_PreparedStatementAddition(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Open(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	stmt, err := conn.Prepare(ctx, "SELECT ? + ?")
	if err != nil {
		t.Fatal(err)
	}
	defer stmt.Close()

	rows, err := stmt.Execute(ctx, Int64Value(2), Int64Value(3))
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatalf("expected one row, got none: %v", rows.Err())
	}
	if got := rows.Row()[0].Int64; got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

// Scenario 5: caching_sha2_password's full-auth path on first connect, then
// fast-auth on a second connect with the same credentials.
func TestE2E_CachingSHA2FullThenFastAuth(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn1, err := Open(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer conn1.Close()
	if conn1.hs.authPluginName != "caching_sha2_password" {
		t.Skip("server did not negotiate caching_sha2_password; skipping full/fast-auth scenario")
	}

	conn2, err := Open(ctx, opts)
	if err != nil {
		t.Fatalf("second connect (expected fast-auth) failed: %v", err)
	}
	defer conn2.Close()

	if err := conn2.Ping(ctx); err != nil {
		t.Fatal(err)
	}
}
