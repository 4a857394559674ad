package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while the caller's token is still the
// current holder, so a slow caller cannot release a lock re-acquired by
// someone else after its own TTL expired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

// RedisCoordinator implements Coordinator with SET NX EX.
type RedisCoordinator struct {
	client *redis.Client
}

// NewRedisCoordinator builds a Redis-backed coordinator.
func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{client: client}
}

// TryAcquire sets the key to a fresh token if absent. ErrBusy means another
// holder owns the key; any other error is a coordinator failure.
func (c *RedisCoordinator) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrBusy
	}
	return token, nil
}

// Release removes the key via compare-and-delete on the holder token.
func (c *RedisCoordinator) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return releaseScript.Run(ctx, c.client, []string{key}, token).Err()
}
