package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/orbitpay/orbitpay/internal/cache"
	"github.com/orbitpay/orbitpay/internal/currency"
	"github.com/orbitpay/orbitpay/internal/identity"
	"github.com/orbitpay/orbitpay/internal/ledger"
)

// Balance returns the wallet's public balance view through the read-through
// cache: a hit is served as-is (stale up to the cache TTL), a miss reads the
// ledger and populates the cache. The cache is never consulted for transfers.
func (s *Service) Balance(ctx context.Context, walletID string) (cache.Entry, error) {
	if entry, ok := s.cache.Get(ctx, walletID); ok {
		return entry, nil
	}

	w, err := s.store.Wallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return cache.Entry{}, ErrWalletNotFound
		}
		return cache.Entry{}, s.terminal(err)
	}

	entry := cache.Entry{
		WalletID: w.ID,
		UserID:   w.UserID,
		Currency: w.Currency.String(),
		Balance:  w.Balance,
	}
	s.cache.Put(ctx, entry)
	return entry, nil
}

// TransactionHistory lists transactions touching the wallet, most recent
// first, bounded by limit.
func (s *Service) TransactionHistory(ctx context.Context, walletID string, limit int) ([]ledger.Transaction, error) {
	txns, err := s.store.Transactions(ctx, walletID, limit)
	if err != nil {
		return nil, s.terminal(err)
	}
	return txns, nil
}

// ConversionView is a conversion record with its converted amount derived at
// read time as amount times rate. The product is never persisted.
type ConversionView struct {
	ledger.ConversionDetail
	ConvertedAmount float64
}

// ConversionHistory lists conversion records for the wallet's transactions.
func (s *Service) ConversionHistory(ctx context.Context, walletID string) ([]ConversionView, error) {
	recs, err := s.store.Conversions(ctx, walletID)
	if err != nil {
		return nil, s.terminal(err)
	}
	views := make([]ConversionView, len(recs))
	for i, rec := range recs {
		views[i] = ConversionView{
			ConversionDetail: rec,
			ConvertedAmount:  rec.Amount * rec.Rate,
		}
	}
	return views, nil
}

// CreateWallet provisions an empty wallet for an existing user. Wallet
// creation sits outside the transfer path; it exists so the service is usable
// end to end.
func (s *Service) CreateWallet(ctx context.Context, userID string, code string) (ledger.Wallet, error) {
	cur, err := currency.Parse(code)
	if err != nil {
		return ledger.Wallet{}, ErrUnsupportedCurrency
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ledger.Wallet{}, ErrUserNotFound
		}
		return ledger.Wallet{}, s.terminal(err)
	}

	w := ledger.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  cur,
		Balance:   0,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateWallet(ctx, w); err != nil {
		return ledger.Wallet{}, s.terminal(err)
	}
	return w, nil
}
