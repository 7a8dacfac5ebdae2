package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a single-node SET NX lock shared by every replica.
type Redis struct {
	client redis.UniversalClient
	prefix string

	mu     sync.Mutex
	owners map[string]string
}

// NewRedis builds a lock whose keys are namespaced by prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, owners: make(map[string]string)}
}

func (r *Redis) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	owner := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key(name), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}

	r.mu.Lock()
	r.owners[name] = owner
	r.mu.Unlock()
	return true, nil
}

func (r *Redis) Release(ctx context.Context, name string) error {
	r.mu.Lock()
	owner, ok := r.owners[name]
	delete(r.owners, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{r.key(name)}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

func (r *Redis) key(name string) string {
	return r.prefix + ":lock:" + name
}
