package lock

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallback uses primary and switches to secondary for any acquisition where
// primary fails with an error, such as an unreachable Redis.
type Fallback struct {
	primary   Lock
	secondary Lock
	logger    *zap.Logger

	mu      sync.Mutex
	holders map[string]Lock
}

// NewFallback builds a lock that degrades from primary to secondary.
func NewFallback(primary, secondary Lock, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		holders:   make(map[string]Lock),
	}
}

func (f *Fallback) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	holder := f.primary
	ok, err := f.primary.Acquire(ctx, name, ttl)
	if err != nil {
		f.logger.Warn("shared lock unavailable; using process-local lock",
			zap.String("lock", name), zap.Error(err))
		holder = f.secondary
		ok, err = f.secondary.Acquire(ctx, name, ttl)
	}
	if err != nil || !ok {
		return false, err
	}

	f.mu.Lock()
	f.holders[name] = holder
	f.mu.Unlock()
	return true, nil
}

func (f *Fallback) Release(ctx context.Context, name string) error {
	f.mu.Lock()
	holder, ok := f.holders[name]
	delete(f.holders, name)
	f.mu.Unlock()
	if !ok {
		return nil
	}
	return holder.Release(ctx, name)
}
