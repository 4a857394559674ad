// Package transfer orchestrates the movement of funds between wallets: it
// resolves the recipient, serializes access to the source wallet, evaluates
// the compliance gate, converts currency, commits the ledger writes
// atomically, and notifies downstream consumers without blocking on them.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbitpay/orbitpay/internal/cache"
	"github.com/orbitpay/orbitpay/internal/events"
	"github.com/orbitpay/orbitpay/internal/fx"
	"github.com/orbitpay/orbitpay/internal/identity"
	"github.com/orbitpay/orbitpay/internal/ledger"
	"github.com/orbitpay/orbitpay/internal/lock"
	"github.com/orbitpay/orbitpay/internal/policy"
)

const cleanupTimeout = 2 * time.Second

// Service sequences a transfer through its fixed step order. It holds no
// request state between invocations; every dependency is injected once at
// construction.
type Service struct {
	store   ledger.Store
	users   identity.Repository
	locks   lock.Coordinator
	gate    policy.Gate
	rates   *fx.Converter
	cache   *cache.BalanceCache
	events  events.Publisher
	logger  *slog.Logger
	lockTTL time.Duration
}

// NewService wires the transfer orchestrator.
func NewService(store ledger.Store, users identity.Repository, locks lock.Coordinator, gate policy.Gate, rates *fx.Converter, balances *cache.BalanceCache, publisher events.Publisher, logger *slog.Logger, lockTTL time.Duration) *Service {
	return &Service{
		store:   store,
		users:   users,
		locks:   locks,
		gate:    gate,
		rates:   rates,
		cache:   balances,
		events:  publisher,
		logger:  logger,
		lockTTL: lockTTL,
	}
}

// TransferInput identifies the source wallet, the destination (exactly one of
// wallet id or phone number), and the amount in source-currency units.
type TransferInput struct {
	FromWalletID string
	ToWalletID   string
	ToPhone      string
	Amount       float64
}

// TransferResult describes a committed transfer.
type TransferResult struct {
	TransactionID  string
	CreditedAmount float64
	Rate           float64
}

// Transfer moves funds between two wallets. On any failure it returns one of
// the package's terminal errors and guarantees that no balance, transaction,
// or conversion mutation is visible. The source-wallet lock is released on
// every exit path.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	if in.Amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	dstID, err := s.resolveDestination(ctx, in)
	if err != nil {
		return TransferResult{}, err
	}
	// Guard after resolution: a phone number can resolve back to the source
	// wallet. Debiting and crediting the same row would overwrite the debit.
	if dstID == in.FromWalletID {
		return TransferResult{}, ErrSameWallet
	}

	lockKey := lock.WalletKey(in.FromWalletID)
	token, err := s.locks.TryAcquire(ctx, lockKey, s.lockTTL)
	if errors.Is(err, lock.ErrBusy) {
		return TransferResult{}, ErrWalletBusy
	}
	if err != nil {
		// The coordinator itself is down. Proceed without the lock; the
		// ledger's row locks remain the correctness backstop.
		s.logger.Warn("lock coordinator unavailable, proceeding without lock",
			slog.String("wallet_id", in.FromWalletID), slog.Any("error", err))
		token = ""
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := s.locks.Release(releaseCtx, lockKey, token); err != nil {
			s.logger.Warn("lock release failed", slog.String("wallet_id", in.FromWalletID), slog.Any("error", err))
		}
	}()

	var (
		txn      ledger.Transaction
		credited float64
		rate     float64
		srcCur   string
	)
	err = s.store.Transact(ctx, func(tx ledger.Tx) error {
		src, dst, err := lockWalletRows(ctx, tx, in.FromWalletID, dstID)
		if err != nil {
			return err
		}
		if src.Balance < in.Amount {
			return ErrInsufficientFunds
		}

		dstOwner, err := s.users.FindByID(ctx, dst.UserID)
		if err != nil {
			return err
		}
		decision, err := s.gate.Check(ctx, src.UserID, policy.ActionTransfer, dstOwner.Region.String())
		if err != nil {
			s.logger.Error("compliance gate unreachable", slog.Any("error", err))
			return ErrComplianceUnavailable
		}
		if !decision.Allowed {
			return &DeniedError{Reason: decision.Reason}
		}

		rate, err = s.rates.Rate(src.Currency, dst.Currency)
		if err != nil {
			return err
		}
		credited = in.Amount * rate

		now := epochSeconds()
		txn = ledger.Transaction{
			ID:           uuid.NewString(),
			FromWalletID: src.ID,
			ToWalletID:   dst.ID,
			Amount:       in.Amount,
			Status:       ledger.StatusSuccess,
			Timestamp:    now,
		}
		rec := ledger.ConversionRecord{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			FromCurrency:  src.Currency,
			ToCurrency:    dst.Currency,
			Rate:          rate,
			Timestamp:     now,
		}
		srcCur = src.Currency.String()

		if err := tx.UpdateBalance(ctx, src.ID, src.Balance-in.Amount); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, dst.ID, dst.Balance+credited); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return tx.InsertConversion(ctx, rec)
	})
	if err != nil {
		return TransferResult{}, s.terminal(err)
	}

	s.cache.Invalidate(ctx, in.FromWalletID, dstID)

	event := events.NewTransactionInitiated(events.TransactionPayload{
		TransactionID: txn.ID,
		FromWallet:    txn.FromWalletID,
		ToWallet:      txn.ToWalletID,
		Amount:        txn.Amount,
		Currency:      srcCur,
		Timestamp:     txn.Timestamp,
	})
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("transaction event publish failed",
			slog.String("transaction_id", txn.ID), slog.Any("error", err))
	}

	return TransferResult{TransactionID: txn.ID, CreditedAmount: credited, Rate: rate}, nil
}

// resolveDestination returns the destination wallet id, resolving a phone
// number when no wallet id was supplied. When the recipient owns wallets in
// several currencies the one matching the source currency wins, otherwise the
// first by creation order.
func (s *Service) resolveDestination(ctx context.Context, in TransferInput) (string, error) {
	if in.ToWalletID != "" {
		return in.ToWalletID, nil
	}
	if in.ToPhone == "" {
		return "", ErrRecipientRequired
	}

	user, err := s.users.FindByPhone(ctx, in.ToPhone)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return "", ErrRecipientNotFound
		}
		return "", s.terminal(err)
	}

	wallets, err := s.store.WalletsByOwner(ctx, user.ID)
	if err != nil {
		return "", s.terminal(err)
	}
	if len(wallets) == 0 {
		return "", ErrRecipientNotFound
	}

	chosen := wallets[0]
	if src, err := s.store.Wallet(ctx, in.FromWalletID); err == nil {
		for _, w := range wallets {
			if w.Currency == src.Currency {
				chosen = w
				break
			}
		}
	}
	return chosen.ID, nil
}

// lockWalletRows reads both wallets under row locks, always locking in id
// order so two opposing transfers cannot deadlock.
func lockWalletRows(ctx context.Context, tx ledger.Tx, srcID, dstID string) (ledger.Wallet, ledger.Wallet, error) {
	firstID, secondID := srcID, dstID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := tx.WalletForUpdate(ctx, firstID)
	if err != nil {
		return ledger.Wallet{}, ledger.Wallet{}, err
	}
	second, err := tx.WalletForUpdate(ctx, secondID)
	if err != nil {
		return ledger.Wallet{}, ledger.Wallet{}, err
	}

	if first.ID == srcID {
		return first, second, nil
	}
	return second, first, nil
}

// terminal maps an arbitrary failure onto the package's closed error
// taxonomy, logging anything unexpected rather than leaking it to callers.
func (s *Service) terminal(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrComplianceDenied),
		errors.Is(err, ErrComplianceUnavailable),
		errors.Is(err, ErrRecipientNotFound):
		return err
	case errors.Is(err, ledger.ErrWalletNotFound):
		return ErrWalletNotFound
	default:
		s.logger.Error("transfer failed", slog.Any("error", err))
		return ErrInternal
	}
}

func epochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
