package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Debit locks the wallet row, checks the balance and writes both the
// balance change and the ledger transaction. A balance below the debit
// amount returns ErrInsufficientBalance and leaves nothing written.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, profileID int64, amount float64, swipeID int64, now time.Time) error {
	if profileID <= 0 || amount < 0 {
		return fmt.Errorf("invalid debit payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var balance float64
	err := tx.QueryRow(ctx, `
SELECT (balance)::float8
FROM wallets
WHERE profile_id = $1
FOR UPDATE
`, profileID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("lock wallet for debit: %w", err)
	}

	if balance < amount {
		return ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `
UPDATE wallets
SET balance = balance - $2, updated_at = $3
WHERE profile_id = $1
`, profileID, amount, now.UTC()); err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO wallet_transactions (
	profile_id,
	swipe_id,
	amount,
	kind,
	created_at
) VALUES ($1, $2, $3, 'swipe_debit', $4)
`, profileID, swipeID, -amount, now.UTC()); err != nil {
		return fmt.Errorf("record debit transaction: %w", err)
	}

	return nil
}

// Credit refunds an amount back onto the wallet, recording a ledger row.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, profileID int64, amount float64, swipeID int64, kind string, now time.Time) error {
	if profileID <= 0 || amount < 0 || kind == "" {
		return fmt.Errorf("invalid credit payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := tx.Exec(ctx, `
UPDATE wallets
SET balance = balance + $2, updated_at = $3
WHERE profile_id = $1
`, profileID, amount, now.UTC())
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWalletNotFound
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO wallet_transactions (
	profile_id,
	swipe_id,
	amount,
	kind,
	created_at
) VALUES ($1, $2, $3, $4, $5)
`, profileID, swipeID, amount, kind, now.UTC()); err != nil {
		return fmt.Errorf("record credit transaction: %w", err)
	}

	return nil
}

func (r *WalletRepo) Get(ctx context.Context, profileID int64) (model.Wallet, error) {
	if profileID <= 0 {
		return model.Wallet{}, fmt.Errorf("invalid profile id")
	}
	if r.pool == nil {
		return model.Wallet{}, ErrWalletNotFound
	}

	var w model.Wallet
	err := r.pool.QueryRow(ctx, `
SELECT profile_id, COALESCE(address, ''), (balance)::float8, updated_at
FROM wallets
WHERE profile_id = $1
LIMIT 1
`, profileID).Scan(&w.ProfileID, &w.Address, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Wallet{}, ErrWalletNotFound
		}
		return model.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}

	return w, nil
}

func (r *WalletRepo) ListTransactions(ctx context.Context, profileID int64, limit int) ([]model.Transaction, error) {
	if profileID <= 0 {
		return nil, fmt.Errorf("invalid profile id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return []model.Transaction{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, profile_id, swipe_id, (amount)::float8, kind, created_at
FROM wallet_transactions
WHERE profile_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	items := make([]model.Transaction, 0, limit)
	for rows.Next() {
		var item model.Transaction
		if err := rows.Scan(
			&item.ID,
			&item.ProfileID,
			&item.SwipeID,
			&item.Amount,
			&item.Kind,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate wallet transactions: %w", rows.Err())
	}

	return items, nil
}
