package ledger

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu        sync.Mutex
	wallets   map[string]Wallet
	txns      []Transaction
	convs     []ConversionRecord
	commitErr error
}

// NewInMemory creates a concurrency-safe in-memory ledger store for unit tests
// and single-node development. Transact serializes on a store-wide mutex and
// stages writes so a failing unit of work leaves no partial state.
func NewInMemory() Store {
	return &memoryStore{wallets: make(map[string]Wallet)}
}

func (s *memoryStore) CreateWallet(_ context.Context, wallet Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[wallet.ID] = wallet
	return nil
}

func (s *memoryStore) Wallet(_ context.Context, id string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *memoryStore) WalletsByOwner(_ context.Context, userID string) ([]Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wallets []Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		if wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].ID < wallets[j].ID
		}
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})
	return wallets, nil
}

func (s *memoryStore) Transactions(_ context.Context, walletID string, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var txns []Transaction
	for i := len(s.txns) - 1; i >= 0 && len(txns) < limit; i-- {
		t := s.txns[i]
		if t.FromWalletID == walletID || t.ToWalletID == walletID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (s *memoryStore) Conversions(_ context.Context, walletID string) ([]ConversionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTxn := make(map[string]Transaction, len(s.txns))
	for _, t := range s.txns {
		byTxn[t.ID] = t
	}
	var recs []ConversionDetail
	for i := len(s.convs) - 1; i >= 0; i-- {
		c := s.convs[i]
		t, ok := byTxn[c.TransactionID]
		if !ok {
			continue
		}
		if t.FromWalletID == walletID || t.ToWalletID == walletID {
			recs = append(recs, ConversionDetail{ConversionRecord: c, Amount: t.Amount})
		}
	}
	return recs, nil
}

// Transact serializes units of work on the store mutex, mirroring the
// row-level locking semantics of the Postgres backend. Writes are staged in
// the Tx and applied only when fn succeeds.
func (s *memoryStore) Transact(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:    s,
		balances: make(map[string]float64),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}

	for id, balance := range tx.balances {
		w := s.wallets[id]
		w.Balance = balance
		s.wallets[id] = w
	}
	s.txns = append(s.txns, tx.txns...)
	s.convs = append(s.convs, tx.convs...)
	return nil
}

type memoryTx struct {
	store    *memoryStore
	balances map[string]float64
	txns     []Transaction
	convs    []ConversionRecord
}

func (t *memoryTx) WalletForUpdate(_ context.Context, id string) (Wallet, error) {
	w, ok := t.store.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	if balance, staged := t.balances[id]; staged {
		w.Balance = balance
	}
	return w, nil
}

func (t *memoryTx) UpdateBalance(_ context.Context, id string, balance float64) error {
	if _, ok := t.store.wallets[id]; !ok {
		return ErrWalletNotFound
	}
	t.balances[id] = balance
	return nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, txn Transaction) error {
	t.txns = append(t.txns, txn)
	return nil
}

func (t *memoryTx) InsertConversion(_ context.Context, rec ConversionRecord) error {
	t.convs = append(t.convs, rec)
	return nil
}
