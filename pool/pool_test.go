package pool

import (
	"container/list"
	"context"
	"testing"
	"time"

	"github.com/silverclasp/gomysql"
)

// newTestPool builds a Pool without starting WarmUp or dialing anything, so
// unit tests can seed p.idle/p.total directly with fake *mysql.Conn values
// and exercise the waiter FIFO without a network connection.
func newTestPool(maxSize int) *Pool {
	return &Pool{
		cfg:     Config{MaxSize: maxSize},
		active:  make(map[*mysql.Conn]*pooledConn),
		waiters: list.New(),
		stopCh:  make(chan struct{}),
	}
}

func TestPool_AcquireFromIdle(t *testing.T) {
	p := newTestPool(1)
	conn := &mysql.Conn{}
	pc := &pooledConn{conn: conn, createdAt: time.Now(), lastUsedAt: time.Now()}
	p.idle = append(p.idle, pc)
	p.total = 1

	got, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != conn {
		t.Fatal("Acquire did not return the seeded idle connection")
	}
	if len(p.idle) != 0 {
		t.Fatalf("idle list should be drained, has %d", len(p.idle))
	}
	if _, active := p.active[conn]; !active {
		t.Fatal("connection should be tracked as active after Acquire")
	}
}

func TestPool_WaiterFIFOHandoff(t *testing.T) {
	p := newTestPool(1)
	conn := &mysql.Conn{}
	p.total = 1
	p.active[conn] = &pooledConn{conn: conn, createdAt: time.Now(), lastUsedAt: time.Now()}

	type result struct {
		conn *mysql.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		got, err := p.Acquire(context.Background())
		done <- result{got, err}
	}()

	// give the waiter a chance to register before Release runs.
	deadline := time.Now().Add(time.Second)
	for p.waiters.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if p.waiters.Len() != 1 {
		t.Fatal("Acquire did not register a waiter while the pool was saturated")
	}

	p.Release(conn)

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if r.conn != conn {
			t.Fatal("waiter did not receive the released connection")
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire never returned after Release")
	}
}

func TestPool_AcquireCancellation(t *testing.T) {
	p := newTestPool(1)
	conn := &mysql.Conn{}
	p.total = 1
	p.active[conn] = &pooledConn{conn: conn, createdAt: time.Now(), lastUsedAt: time.Now()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx)
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for p.waiters.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled Acquire never returned")
	}

	deadline = time.Now().Add(time.Second)
	for p.waiters.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if p.waiters.Len() != 0 {
		t.Fatal("cancelled waiter was not unlinked from the queue")
	}

	// the connection it never received must still be returnable to a later
	// waiter rather than leaking out of the pool's accounting.
	p.Release(conn)
	if len(p.idle) != 1 {
		t.Fatalf("released connection should land on the idle list, idle=%d", len(p.idle))
	}
}

func TestPool_ReleaseUnknownConnIsNoop(t *testing.T) {
	p := newTestPool(1)
	p.Release(&mysql.Conn{})
	if len(p.idle) != 0 || len(p.active) != 0 {
		t.Fatal("releasing an untracked connection must not mutate pool state")
	}
}

func TestPool_ReapIdleNoopUnderMinSize(t *testing.T) {
	p := newTestPool(4)
	p.cfg.MinSize = 2
	p.idle = []*pooledConn{
		{conn: &mysql.Conn{}, lastUsedAt: time.Now().Add(-time.Hour)},
		{conn: &mysql.Conn{}, lastUsedAt: time.Now().Add(-time.Hour)},
	}
	p.total = 2
	p.cfg.IdleTimeout = time.Minute

	p.reapIdle()

	if len(p.idle) != 2 {
		t.Fatalf("idle count at MinSize should be left alone, got %d", len(p.idle))
	}
}

func TestPool_StatsReflectsOccupancy(t *testing.T) {
	p := newTestPool(2)
	conn := &mysql.Conn{}
	p.idle = append(p.idle, &pooledConn{conn: conn})
	p.total = 1

	stats := p.Stats()
	if stats.Idle != 1 || stats.Total != 1 || stats.Active != 0 || stats.Waiting != 0 {
		t.Fatalf("got %+v", stats)
	}
}
