package memstore

import (
	"context"
	"errors"
	"sync"
	"ticketcore/src/types"
	"time"
)

// lockTable hands out one exclusive lock per key. Locks are never removed;
// one entry per ticket type or ticket ever locked.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: map[string]chan struct{}{}}
}

func (l *lockTable) get(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := l.get(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return types.ErrLockTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return types.ErrLockTimeout
		}
		return ctx.Err()
	}
}

func (l *lockTable) release(key string) {
	<-l.get(key)
}
