// Package lock serializes work per key, in process or across instances.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Locker interface {
	// Acquire blocks until key is held or ctx ends. The returned release
	// func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func SummaryKey(userID uuid.UUID, month string) string {
	return fmt.Sprintf("summary:%s:%s", userID, month)
}

func KPIKey(kpiID uuid.UUID) string {
	return fmt.Sprintf("kpi:%s", kpiID)
}

type entry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex for single-instance deployments.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.drop(key, e)
		})
	}, nil
}

func (l *MemoryLocker) drop(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
