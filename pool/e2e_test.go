package pool

import (
	"context"
	"flag"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/silverclasp/gomysql"
)

// Exercises the pool against a live server; skipped unless -mysql names
// one, mirroring the root package's own opt-in integration test pattern.

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

func testOptions(t *testing.T) mysql.Options {
	t.Helper()
	if *mysqlFlag == "" {
		t.Skip(skipReason)
	}
	return mysql.Options{
		Network:        "tcp",
		Address:        *mysqlFlag,
		Username:       *testUser,
		Password:       *testPass,
		Database:       *testDB,
		ConnectTimeout: 5 * time.Second,
	}
}

// Scenario 6: minsize=1, maxsize=2. Three concurrent acquires: two succeed
// immediately (one reused from warm-up, one freshly dialed); the third
// blocks until a release wakes it in FIFO order.
func TestE2E_PoolFIFOWaiter(t *testing.T) {
	opts := testOptions(t)
	p := New(Config{
		Options: opts,
		MinSize: 1,
		MaxSize: 2,
	})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WarmUp(ctx); err != nil {
		t.Fatal(err)
	}

	c1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	waiterDone := make(chan struct{})
	var waiterConn *mysql.Conn
	go func() {
		defer wg.Done()
		c3, err := p.Acquire(context.Background())
		if err != nil {
			t.Error(err)
			return
		}
		waiterConn = c3
		close(waiterDone)
	}()

	select {
	case <-waiterDone:
		t.Fatal("third acquire should not have succeeded before a release")
	case <-time.After(200 * time.Millisecond):
	}

	p.Release(c1)

	select {
	case <-waiterDone:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never woke after release")
	}
	wg.Wait()
	if waiterConn == nil {
		t.Fatal("waiter did not receive a connection")
	}

	p.Release(c2)
	p.Release(waiterConn)

	if stats := p.Stats(); stats.Active != 0 {
		t.Fatalf("stats = %+v, want all connections released", stats)
	}
}

// WarmUp should dial exactly MinSize connections and leave them idle.
func TestE2E_WarmUp(t *testing.T) {
	opts := testOptions(t)
	p := New(Config{
		Options: opts,
		MinSize: 2,
		MaxSize: 4,
	})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WarmUp(ctx); err != nil {
		t.Fatal(err)
	}
	stats := p.Stats()
	if stats.Idle != 2 || stats.Total != 2 {
		t.Fatalf("stats = %+v, want Idle=2 Total=2", stats)
	}
}
