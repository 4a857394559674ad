// Package cache holds the read-through balance cache. Entries are a
// best-effort shadow of the ledger's wallet rows and are never authoritative:
// every failure degrades to a miss, and writers only populate or invalidate
// around a transfer's edges.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 2 * time.Second

// Entry is the cached public balance view of a wallet.
type Entry struct {
	WalletID string  `json:"wallet_id"`
	UserID   string  `json:"user_id"`
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

// BalanceCache caches wallet balance views in Redis with a bounded TTL. A nil
// client yields a cache where every lookup misses.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a balance cache. ttl bounds staleness of every entry.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl, logger: logger}
}

func balanceKey(walletID string) string {
	return fmt.Sprintf("wallet:%s:balance", walletID)
}

// Get returns the cached entry for the wallet, or a miss. Cache failures are
// logged and reported as misses.
func (c *BalanceCache) Get(ctx context.Context, walletID string) (Entry, bool) {
	if c.client == nil {
		return Entry{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, balanceKey(walletID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("balance cache lookup failed", slog.String("wallet_id", walletID), slog.Any("error", err))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("balance cache entry corrupt", slog.String("wallet_id", walletID), slog.Any("error", err))
		return Entry{}, false
	}
	return entry, true
}

// Put stores the entry under the cache TTL. Failures are logged, not returned.
func (c *BalanceCache) Put(ctx context.Context, entry Entry) {
	if c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	payload, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("balance cache encode failed", slog.String("wallet_id", entry.WalletID), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, balanceKey(entry.WalletID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("balance cache write failed", slog.String("wallet_id", entry.WalletID), slog.Any("error", err))
	}
}

// Invalidate drops the cached entries for the given wallets. Best effort.
func (c *BalanceCache) Invalidate(ctx context.Context, walletIDs ...string) {
	if c.client == nil || len(walletIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys := make([]string, len(walletIDs))
	for i, id := range walletIDs {
		keys[i] = balanceKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("balance cache invalidation failed", slog.Any("wallet_ids", walletIDs), slog.Any("error", err))
	}
}
