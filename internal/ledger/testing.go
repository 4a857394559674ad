package ledger

// SeedWallet is a test helper that inserts or replaces a wallet when using the
// in-memory store.
func SeedWallet(s Store, wallet Wallet) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.wallets[wallet.ID] = wallet
	}
}

// FailCommits is a test helper that makes every subsequent Transact fail at
// commit time with err, after fn has run. Pass nil to restore normal behavior.
func FailCommits(s Store, err error) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.commitErr = err
	}
}
