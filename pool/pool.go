// Package pool implements a bounded, FIFO-fair connection pool on top of
// mysql.Conn (spec §4.8). Waiters queue on a channel-per-waiter list rather
// than a sync.Cond broadcast: Cond.Wait wakes every waiter on every Release,
// and a cancelled waiter has no way to remove itself from a Cond's wait set
// without also waking the others, which leaks a turn of fairness (and, under
// load, an O(n) scan) on every cancellation. A container/list of one-shot
// channels lets a cancelled Acquire unlink itself in O(1) and lets Release
// hand a connection directly to the oldest waiter.
package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/silverclasp/gomysql"
)

// Config controls pool sizing and connection lifecycle.
type Config struct {
	Options mysql.Options

	MinSize int           // connections kept warm even when idle
	MaxSize int           // hard cap on total connections
	IdleTimeout time.Duration // close an idle connection after this long unused
	MaxLifetime time.Duration // close a connection this old regardless of use
	PingOnAcquire bool          // health-check idle connections before handing them out

	ReapInterval time.Duration // how often the idle reaper runs; defaults to 30s
}

type pooledConn struct {
	conn       *mysql.Conn
	createdAt  time.Time
	lastUsedAt time.Time
}

func (pc *pooledConn) expired(maxLifetime time.Duration) bool {
	return maxLifetime > 0 && time.Since(pc.createdAt) >= maxLifetime
}

func (pc *pooledConn) idleTooLong(idleTimeout time.Duration) bool {
	return idleTimeout > 0 && time.Since(pc.lastUsedAt) >= idleTimeout
}

type waiter struct {
	ch chan *pooledConn
}

// Pool is a bounded set of mysql.Conn connections to a single server,
// handed out in FIFO order when the pool is at capacity.
type Pool struct {
	cfg    Config
	logger *logrus.Logger

	mu      sync.Mutex
	idle    []*pooledConn
	active  map[*mysql.Conn]*pooledConn
	waiters *list.List // of *waiter
	total   int
	closed  bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a pool and starts its idle reaper. It does not dial any
// connections synchronously; call WarmUp to pre-create MinSize connections.
func New(cfg Config) *Pool {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 30 * time.Second
	}
	p := &Pool{
		cfg:     cfg,
		logger:  cfg.Options.Logger,
		active:  make(map[*mysql.Conn]*pooledConn),
		waiters: list.New(),
		stopCh:  make(chan struct{}),
	}
	p.wg.Add(1)
	go p.reapLoop()
	return p
}

// WarmUp dials idle connections until the pool holds MinSize connections in
// total, idle and active together (or ctx is cancelled, or the pool hits an
// error dialing). Callers typically
// run this once, in the background, right after New.
func (p *Pool) WarmUp(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.closed || p.total >= p.cfg.MinSize {
			p.mu.Unlock()
			return nil
		}
		p.total++
		p.mu.Unlock()

		pc, err := p.dial(ctx)
		if err != nil {
			p.mu.Lock()
			p.total--
			p.mu.Unlock()
			return err
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = pc.conn.Close()
			return nil
		}
		p.idle = append(p.idle, pc)
		p.mu.Unlock()
	}
}

func (p *Pool) dial(ctx context.Context) (*pooledConn, error) {
	conn, err := mysql.Open(ctx, p.cfg.Options)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &pooledConn{conn: conn, createdAt: now, lastUsedAt: now}, nil
}

// Acquire returns a connection, creating one if the pool is under MaxSize,
// or waiting in FIFO order for one to be returned otherwise. The wait
// respects ctx: on cancellation Acquire unlinks its waiter and returns
// ctx.Err() (or PoolTimeout if ctx carried a deadline that elapsed).
func (p *Pool) Acquire(ctx context.Context) (*mysql.Conn, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, PoolClosed
		}

		for len(p.idle) > 0 {
			pc := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]

			if pc.expired(p.cfg.MaxLifetime) {
				p.total--
				p.mu.Unlock()
				_ = pc.conn.Close()
				p.mu.Lock()
				continue
			}
			p.mu.Unlock()
			if p.cfg.PingOnAcquire {
				if err := pc.conn.Ping(ctx); err != nil {
					_ = pc.conn.Close()
					p.mu.Lock()
					p.total--
					continue
				}
			}
			pc.lastUsedAt = time.Now()
			p.mu.Lock()
			p.active[pc.conn] = pc
			p.mu.Unlock()
			return pc.conn, nil
		}

		if p.total < p.cfg.MaxSize {
			p.total++
			p.mu.Unlock()
			pc, err := p.dial(ctx)
			if err != nil {
				p.mu.Lock()
				p.total--
				p.mu.Unlock()
				return nil, err
			}
			p.mu.Lock()
			p.active[pc.conn] = pc
			p.mu.Unlock()
			return pc.conn, nil
		}

		w := &waiter{ch: make(chan *pooledConn, 1)}
		elem := p.waiters.PushBack(w)
		p.mu.Unlock()

		select {
		case pc := <-w.ch:
			if pc == nil {
				return nil, PoolClosed
			}
			return pc.conn, nil
		case <-ctx.Done():
			p.mu.Lock()
			p.waiters.Remove(elem)
			p.mu.Unlock()
			select {
			case pc := <-w.ch:
				if pc == nil {
					return nil, PoolClosed
				}
				return pc.conn, nil
			default:
			}
			if ctx.Err() == context.DeadlineExceeded {
				return nil, PoolTimeout
			}
			return nil, ctx.Err()
		}
	}
}

// Release returns a connection to the pool, handing it directly to the
// longest-waiting Acquire if one is queued, or back onto the idle list
// otherwise. Release must be called exactly once per successful Acquire.
func (p *Pool) Release(conn *mysql.Conn) {
	p.mu.Lock()
	pc, ok := p.active[conn]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, conn)

	if p.closed || pc.expired(p.cfg.MaxLifetime) {
		p.total--
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	pc.lastUsedAt = time.Now()

	for {
		front := p.waiters.Front()
		if front == nil {
			break
		}
		p.waiters.Remove(front)
		w := front.Value.(*waiter)
		select {
		case w.ch <- pc:
			p.active[pc.conn] = pc
			p.mu.Unlock()
			return
		default:
			// waiter already cancelled and drained its buffered slot; try
			// the next one in FIFO order.
			continue
		}
	}

	p.idle = append(p.idle, pc)
	p.mu.Unlock()
}

// Stats reports a snapshot of pool occupancy.
type Stats struct {
	Idle    int
	Active  int
	Total   int
	Waiting int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Idle:    len(p.idle),
		Active:  len(p.active),
		Total:   p.total,
		Waiting: p.waiters.Len(),
	}
}

func (p *Pool) reapLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reapIdle()
		case <-p.stopCh:
			return
		}
	}
}

// reapIdle closes idle connections that have exceeded IdleTimeout or
// MaxLifetime, never dropping below MinSize.
func (p *Pool) reapIdle() {
	p.mu.Lock()
	if len(p.idle) <= p.cfg.MinSize {
		p.mu.Unlock()
		return
	}
	excess := len(p.idle) - p.cfg.MinSize
	kept := make([]*pooledConn, 0, len(p.idle))
	var toClose []*pooledConn
	for i, pc := range p.idle {
		if i < excess && (pc.idleTooLong(p.cfg.IdleTimeout) || pc.expired(p.cfg.MaxLifetime)) {
			toClose = append(toClose, pc)
			p.total--
		} else {
			kept = append(kept, pc)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	for _, pc := range toClose {
		_ = pc.conn.Close()
	}
}

// Close stops the idle reaper, closes every idle connection, and wakes any
// queued waiters with PoolClosed. Active connections are closed as they are
// released; Close does not block waiting for them.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)

	idle := p.idle
	p.idle = nil
	for e := p.waiters.Front(); e != nil; e = e.Next() {
		w := e.Value.(*waiter)
		select {
		case w.ch <- nil:
		default:
		}
	}
	p.waiters.Init()
	p.mu.Unlock()

	p.wg.Wait()
	for _, pc := range idle {
		_ = pc.conn.Close()
	}
	return nil
}
