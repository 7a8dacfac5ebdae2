// Package lock provides the run lock that keeps balance recalculation from
// overlapping with itself, in-process or across replicas.
package lock

import (
	"context"
	"sync"
	"time"
)

// Lock is a named, expiring mutual-exclusion lock.
type Lock interface {
	// Acquire returns false without error when another holder owns name.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	// Release drops name if this instance still owns it.
	Release(ctx context.Context, name string) error
}

// Local is a process-local Lock.
type Local struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLocal returns an empty process-local lock.
func NewLocal() *Local {
	return &Local{held: make(map[string]time.Time), clock: time.Now}
}

func (l *Local) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expires, ok := l.held[name]; ok && now.Before(expires) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

func (l *Local) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
	return nil
}
