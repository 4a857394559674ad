// Package lock provides a mutual-exclusion primitive keyed by wallet
// identifier. Acquisition is conditional set-if-absent with an expiry that
// bounds leakage from crashed holders; release is a no-op unless the caller
// still holds the lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBusy indicates the key is currently held by another caller. Any other
// error from TryAcquire means the coordinator itself failed.
var ErrBusy = errors.New("lock busy")

// Coordinator is the contract implemented by lock backends. The underlying
// primitive (Redis, database advisory lock, in-process mutex) is swappable
// without touching callers.
type Coordinator interface {
	// TryAcquire attempts to take the lock without blocking. On success it
	// returns the holder token required to release.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Release frees the lock if token still matches the current holder.
	// Releasing an expired or foreign lock is a silent no-op.
	Release(ctx context.Context, key, token string) error
}

// WalletKey builds the lock namespace entry for a wallet. Locks are keyed
// strictly by wallet id, never by user id, so a user's other wallets are not
// serialized.
func WalletKey(walletID string) string {
	return fmt.Sprintf("lock:wallet:%s", walletID)
}
