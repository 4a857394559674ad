package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orbitpay/orbitpay/internal/currency"
)

// PostgresStore persists wallets, transactions and conversion records in
// PostgreSQL. WalletForUpdate takes a row-level lock (SELECT ... FOR UPDATE),
// so two concurrent transfers touching the same wallet serialize at the row
// even when the external lock coordinator is degraded.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateWallet inserts a wallet record.
func (s *PostgresStore) CreateWallet(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(wallet.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (wallet_id, user_id, currency, balance, created_at)
        VALUES ($1, $2, $3, $4, $5)`,
		walletID, userID, string(wallet.Currency), wallet.Balance, wallet.CreatedAt.UTC())
	return err
}

// Wallet fetches a wallet without locking it.
func (s *PostgresStore) Wallet(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT wallet_id, user_id, currency, balance, created_at
        FROM wallets WHERE wallet_id = $1`, walletID)
	return scanWallet(row)
}

// WalletsByOwner lists a user's wallets in creation order.
func (s *PostgresStore) WalletsByOwner(ctx context.Context, userID string) ([]Wallet, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT wallet_id, user_id, currency, balance, created_at
        FROM wallets WHERE user_id = $1 ORDER BY created_at, wallet_id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Transactions lists transactions touching the wallet, most recent first.
func (s *PostgresStore) Transactions(ctx context.Context, walletID string, limit int) ([]Transaction, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT transaction_id, from_wallet_id, to_wallet_id, amount, status, timestamp
        FROM transactions WHERE from_wallet_id = $1 OR to_wallet_id = $1
        ORDER BY timestamp DESC LIMIT $2`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var (
			txnID  uuid.UUID
			fromID uuid.UUID
			toID   uuid.UUID
			status string
			txn    Transaction
		)
		if err := rows.Scan(&txnID, &fromID, &toID, &txn.Amount, &status, &txn.Timestamp); err != nil {
			return nil, err
		}
		txn.ID = txnID.String()
		txn.FromWalletID = fromID.String()
		txn.ToWalletID = toID.String()
		txn.Status = Status(status)
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// Conversions lists conversion records for transactions touching the wallet,
// most recent first, joined with each transaction's amount.
func (s *PostgresStore) Conversions(ctx context.Context, walletID string) ([]ConversionDetail, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT c.id, c.transaction_id, c.from_currency, c.to_currency, c.rate, c.timestamp, t.amount
        FROM conversion_rates c
        INNER JOIN transactions t ON t.transaction_id = c.transaction_id
        WHERE t.from_wallet_id = $1 OR t.to_wallet_id = $1
        ORDER BY c.timestamp DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []ConversionDetail
	for rows.Next() {
		var (
			recID uuid.UUID
			txnID uuid.UUID
			from  string
			to    string
			rec   ConversionDetail
		)
		if err := rows.Scan(&recID, &txnID, &from, &to, &rec.Rate, &rec.Timestamp, &rec.Amount); err != nil {
			return nil, err
		}
		rec.ID = recID.String()
		rec.TransactionID = txnID.String()
		rec.FromCurrency = currency.Currency(from)
		rec.ToCurrency = currency.Currency(to)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Transact runs fn inside one database transaction. Any error from fn rolls
// back every write; commit happens only when fn returns nil.
func (s *PostgresStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type postgresTx struct {
	tx pgx.Tx
}

// WalletForUpdate reads a wallet under a row-level lock. Blocks until the row
// lock is granted.
func (t *postgresTx) WalletForUpdate(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := t.tx.QueryRow(ctx, `SELECT wallet_id, user_id, currency, balance, created_at
        FROM wallets WHERE wallet_id = $1 FOR UPDATE`, walletID)
	return scanWallet(row)
}

func (t *postgresTx) UpdateBalance(ctx context.Context, id string, balance float64) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrWalletNotFound
	}
	cmd, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE wallet_id = $2`, balance, walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (t *postgresTx) InsertTransaction(ctx context.Context, txn Transaction) error {
	txnID, err := uuid.Parse(txn.ID)
	if err != nil {
		return err
	}
	fromID, err := uuid.Parse(txn.FromWalletID)
	if err != nil {
		return err
	}
	toID, err := uuid.Parse(txn.ToWalletID)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO transactions (transaction_id, from_wallet_id, to_wallet_id, amount, status, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		txnID, fromID, toID, txn.Amount, string(txn.Status), txn.Timestamp)
	return err
}

func (t *postgresTx) InsertConversion(ctx context.Context, rec ConversionRecord) error {
	recID, err := uuid.Parse(rec.ID)
	if err != nil {
		return err
	}
	txnID, err := uuid.Parse(rec.TransactionID)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO conversion_rates (id, transaction_id, from_currency, to_currency, rate, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		recID, txnID, string(rec.FromCurrency), string(rec.ToCurrency), rec.Rate, rec.Timestamp)
	return err
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		walletID  uuid.UUID
		userID    uuid.UUID
		code      string
		createdAt time.Time
		w         Wallet
	)
	if err := row.Scan(&walletID, &userID, &code, &w.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = walletID.String()
	w.UserID = userID.String()
	w.Currency = currency.Currency(code)
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
