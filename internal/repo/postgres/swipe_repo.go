package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSwipeNotFound = errors.New("swipe not found")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

type SwipeRecord struct {
	ID              int64
	ActorProfileID  int64
	TargetProfileID int64
	Type            string
	Cost            float64
	IsRefunded      bool
	CreatedAt       time.Time
}

func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, actorProfileID, targetProfileID int64, swipeType string, cost float64, now time.Time) (SwipeRecord, error) {
	if actorProfileID <= 0 || targetProfileID <= 0 || swipeType == "" {
		return SwipeRecord{}, fmt.Errorf("invalid swipe payload")
	}
	if cost < 0 {
		return SwipeRecord{}, fmt.Errorf("invalid swipe cost")
	}
	if tx == nil {
		return SwipeRecord{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_profile_id,
	target_profile_id,
	swipe_type,
	cost,
	is_refunded,
	created_at
) VALUES ($1, $2, $3, $4, FALSE, $5)
RETURNING id, actor_profile_id, target_profile_id, swipe_type, (cost)::float8, is_refunded, created_at
`, actorProfileID, targetProfileID, swipeType, cost, now.UTC()).Scan(
		&rec.ID,
		&rec.ActorProfileID,
		&rec.TargetProfileID,
		&rec.Type,
		&rec.Cost,
		&rec.IsRefunded,
		&rec.CreatedAt,
	)
	if err != nil {
		return SwipeRecord{}, fmt.Errorf("create swipe: %w", err)
	}

	return rec, nil
}

func (r *SwipeRepo) GetByID(ctx context.Context, swipeID int64) (SwipeRecord, error) {
	if swipeID <= 0 {
		return SwipeRecord{}, fmt.Errorf("invalid swipe id")
	}
	if r.pool == nil {
		return SwipeRecord{}, ErrSwipeNotFound
	}

	var rec SwipeRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, actor_profile_id, target_profile_id, swipe_type, (cost)::float8, is_refunded, created_at
FROM swipes
WHERE id = $1
LIMIT 1
`, swipeID).Scan(
		&rec.ID,
		&rec.ActorProfileID,
		&rec.TargetProfileID,
		&rec.Type,
		&rec.Cost,
		&rec.IsRefunded,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, ErrSwipeNotFound
		}
		return SwipeRecord{}, fmt.Errorf("get swipe: %w", err)
	}

	return rec, nil
}

// MarkRefunded flips the refund flag. It is the only mutation a swipe row
// ever sees after insert, and only the settlement pipeline calls it.
func (r *SwipeRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, swipeID int64) (bool, error) {
	if swipeID <= 0 {
		return false, fmt.Errorf("invalid swipe id")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
UPDATE swipes
SET is_refunded = TRUE
WHERE id = $1 AND is_refunded IS NOT TRUE
`, swipeID)
	if err != nil {
		return false, fmt.Errorf("mark swipe refunded: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// HasMutualKiss reports whether both profiles kissed each other, computed
// from persisted swipe rows only. It is safe to run redundantly from either
// side of a race; both callers read the same committed state.
func (r *SwipeRepo) HasMutualKiss(ctx context.Context, profileA, profileB int64) (bool, error) {
	if profileA <= 0 || profileB <= 0 {
		return false, fmt.Errorf("invalid mutual kiss payload")
	}
	if r.pool == nil {
		return false, nil
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
WHERE EXISTS (
	SELECT 1 FROM swipes
	WHERE actor_profile_id = $1 AND target_profile_id = $2 AND swipe_type = 'kiss'
)
AND EXISTS (
	SELECT 1 FROM swipes
	WHERE actor_profile_id = $2 AND target_profile_id = $1 AND swipe_type = 'kiss'
)
`, profileA, profileB).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup mutual kiss: %w", err)
	}

	return true, nil
}
