package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/orbitpay/orbitpay/internal/currency"
)

// ErrWalletNotFound indicates the referenced wallet does not exist.
var ErrWalletNotFound = errors.New("wallet not found")

// Status is the lifecycle state recorded on a transaction row.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Wallet is a balance holder in one currency, owned by exactly one user.
// Balances are mutated only inside Transact.
type Wallet struct {
	ID        string
	UserID    string
	Currency  currency.Currency
	Balance   float64
	CreatedAt time.Time
}

// Transaction is the immutable audit record of one attempted transfer. Amount
// is denominated in the source wallet currency. Timestamp is seconds since
// epoch.
type Transaction struct {
	ID           string
	FromWalletID string
	ToWalletID   string
	Amount       float64
	Status       Status
	Timestamp    float64
}

// ConversionRecord captures the rate applied to a transaction, one-to-one with
// its owning transaction. Rate is 1.0 when both wallets share a currency.
type ConversionRecord struct {
	ID            string
	TransactionID string
	FromCurrency  currency.Currency
	ToCurrency    currency.Currency
	Rate          float64
	Timestamp     float64
}

// ConversionDetail is a ConversionRecord joined with its transaction amount so
// callers can derive the converted amount at read time (amount × rate) without
// persisting it.
type ConversionDetail struct {
	ConversionRecord
	Amount float64
}

// Tx is a transaction-scoped view of the store. Reads through WalletForUpdate
// hold a row-level lock until the surrounding Transact call commits or rolls
// back.
type Tx interface {
	WalletForUpdate(ctx context.Context, id string) (Wallet, error)
	UpdateBalance(ctx context.Context, id string, balance float64) error
	InsertTransaction(ctx context.Context, txn Transaction) error
	InsertConversion(ctx context.Context, rec ConversionRecord) error
}

// Store defines the contract implemented by ledger backends.
//
// Transact runs fn inside a single atomic unit of work: if fn returns an
// error every write made through the Tx is rolled back, otherwise all writes
// commit together.
type Store interface {
	CreateWallet(ctx context.Context, wallet Wallet) error
	Wallet(ctx context.Context, id string) (Wallet, error)
	WalletsByOwner(ctx context.Context, userID string) ([]Wallet, error)
	Transactions(ctx context.Context, walletID string, limit int) ([]Transaction, error)
	Conversions(ctx context.Context, walletID string) ([]ConversionDetail, error)
	Transact(ctx context.Context, fn func(tx Tx) error) error
}
