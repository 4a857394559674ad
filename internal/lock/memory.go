package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type holder struct {
	token     string
	expiresAt time.Time
}

// MemoryCoordinator implements Coordinator with an in-process map. Suitable
// for tests and single-node deployments.
type MemoryCoordinator struct {
	mu    sync.Mutex
	locks map[string]holder
	now   func() time.Time
}

// NewMemoryCoordinator builds an in-process coordinator.
func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{locks: make(map[string]holder), now: time.Now}
}

func (c *MemoryCoordinator) TryAcquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.locks[key]; ok && c.now().Before(h.expiresAt) {
		return "", ErrBusy
	}

	token := uuid.NewString()
	c.locks[key] = holder{token: token, expiresAt: c.now().Add(ttl)}
	return token, nil
}

func (c *MemoryCoordinator) Release(_ context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.locks[key]; ok && h.token == token {
		delete(c.locks, key)
	}
	return nil
}
