package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
)

var ErrSettlementNotFound = errors.New("settlement not found")

type SettlementRepo struct {
	pool *pgxpool.Pool
}

func NewSettlementRepo(pool *pgxpool.Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// Upsert records a settlement notice keyed by the external transaction id.
// Re-delivered notices update the status in place, which makes the inbound
// webhook idempotent.
func (r *SettlementRepo) Upsert(ctx context.Context, tx pgx.Tx, s model.OnchainSettlement, now time.Time) (model.OnchainSettlement, error) {
	if strings.TrimSpace(s.TxID) == "" || s.SwipeID <= 0 || !s.Status.Valid() {
		return model.OnchainSettlement{}, fmt.Errorf("invalid settlement payload")
	}
	if tx == nil {
		return model.OnchainSettlement{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var out model.OnchainSettlement
	var status string
	err := tx.QueryRow(ctx, `
INSERT INTO onchain_settlements (
	tx_id,
	swipe_id,
	counter_swipe_id,
	amount,
	fee,
	status,
	sender_wallet,
	recipient_wallet,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (tx_id) DO UPDATE SET
	status = EXCLUDED.status,
	fee = EXCLUDED.fee,
	updated_at = EXCLUDED.updated_at
RETURNING id, tx_id, swipe_id, counter_swipe_id, (amount)::float8, (fee)::float8, status, sender_wallet, recipient_wallet, created_at, updated_at
`,
		strings.TrimSpace(s.TxID),
		s.SwipeID,
		s.CounterSwipeID,
		s.Amount,
		s.Fee,
		string(s.Status),
		strings.TrimSpace(s.SenderWallet),
		strings.TrimSpace(s.RecipientWallet),
		now.UTC(),
	).Scan(
		&out.ID,
		&out.TxID,
		&out.SwipeID,
		&out.CounterSwipeID,
		&out.Amount,
		&out.Fee,
		&status,
		&out.SenderWallet,
		&out.RecipientWallet,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return model.OnchainSettlement{}, fmt.Errorf("upsert settlement: %w", err)
	}
	out.Status = enums.SettlementStatus(status)

	return out, nil
}

func (r *SettlementRepo) GetByTxID(ctx context.Context, txID string) (model.OnchainSettlement, error) {
	if strings.TrimSpace(txID) == "" {
		return model.OnchainSettlement{}, fmt.Errorf("invalid settlement tx id")
	}
	if r.pool == nil {
		return model.OnchainSettlement{}, ErrSettlementNotFound
	}

	var out model.OnchainSettlement
	var status string
	err := r.pool.QueryRow(ctx, `
SELECT id, tx_id, swipe_id, counter_swipe_id, (amount)::float8, (fee)::float8, status, sender_wallet, recipient_wallet, created_at, updated_at
FROM onchain_settlements
WHERE tx_id = $1
LIMIT 1
`, strings.TrimSpace(txID)).Scan(
		&out.ID,
		&out.TxID,
		&out.SwipeID,
		&out.CounterSwipeID,
		&out.Amount,
		&out.Fee,
		&status,
		&out.SenderWallet,
		&out.RecipientWallet,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OnchainSettlement{}, ErrSettlementNotFound
		}
		return model.OnchainSettlement{}, fmt.Errorf("get settlement: %w", err)
	}
	out.Status = enums.SettlementStatus(status)

	return out, nil
}
