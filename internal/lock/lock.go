// Package lock serializes mutations of a single schedule. Every read-modify-write
// of a schedule's ledger runs while holding the schedule's key.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when the context ends before the lock is obtained.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive, per-key locks. The returned unlock func is idempotent.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ScheduleKey is the lock key of a schedule.
func ScheduleKey(scheduleID string) string {
	return "schedule:" + scheduleID
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Entries are dropped once nobody holds or waits on them.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localEntry
}

func NewLocal() *Local {
	return &Local{keys: make(map[string]*localEntry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}
