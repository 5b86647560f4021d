package memory

import (
	"context"
	"sync"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
)

// KeyedLocker hands out one mutex per session id. Idle entries are dropped
// as soon as nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[domain.SessionID]*keyedLock
	wait  time.Duration
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates a locker whose Lock gives up after wait. A zero wait
// blocks until the context ends.
func NewKeyedLocker(wait time.Duration) *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[domain.SessionID]*keyedLock),
		wait:  wait,
	}
}

var _ ports.SessionLocker = (*KeyedLocker)(nil)

func (l *KeyedLocker) Lock(ctx context.Context, id domain.SessionID) (func(), error) {
	entry := l.acquire(id)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id)
		return nil, ctx.Err()
	case <-timeout:
		l.release(id)
		return nil, domain.ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(id)
		})
	}, nil
}

func (l *KeyedLocker) acquire(id domain.SessionID) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[id]
	if !ok {
		entry = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (l *KeyedLocker) release(id domain.SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
}

// held returns how many ids currently have a holder or waiter.
func (l *KeyedLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
