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

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// DiscardPending moves every pending review of (profile, attribute) to
// discarded and returns the rows it touched so the caller can append
// history for each. Runs in the submit transaction, which closes the
// read-then-write race that would otherwise allow two pending rows.
func (r *ReviewRepo) DiscardPending(ctx context.Context, tx pgx.Tx, profileID int64, attribute string, now time.Time) ([]model.ProfileReview, error) {
	if profileID <= 0 || strings.TrimSpace(attribute) == "" {
		return nil, fmt.Errorf("invalid review payload")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rows, err := tx.Query(ctx, `
UPDATE profile_reviews
SET status = 'discarded', reviewed_at = $3
WHERE profile_id = $1 AND attribute = $2 AND status = 'pending'
RETURNING id, profile_id, attribute, current_value, proposed_value, status, rejection_reason, created_at, reviewed_at
`, profileID, strings.TrimSpace(attribute), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("discard pending reviews: %w", err)
	}
	defer rows.Close()

	discarded := make([]model.ProfileReview, 0, 1)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		discarded = append(discarded, review)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate discarded reviews: %w", rows.Err())
	}

	return discarded, nil
}

func (r *ReviewRepo) InsertPending(ctx context.Context, tx pgx.Tx, profileID int64, attribute, currentValue, proposedValue string, now time.Time) (model.ProfileReview, error) {
	if profileID <= 0 || strings.TrimSpace(attribute) == "" {
		return model.ProfileReview{}, fmt.Errorf("invalid review payload")
	}
	if tx == nil {
		return model.ProfileReview{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, `
INSERT INTO profile_reviews (
	profile_id,
	attribute,
	current_value,
	proposed_value,
	status,
	created_at
) VALUES ($1, $2, $3, $4, 'pending', $5)
RETURNING id, profile_id, attribute, current_value, proposed_value, status, rejection_reason, created_at, reviewed_at
`, profileID, strings.TrimSpace(attribute), currentValue, proposedValue, now.UTC())

	review, err := scanReview(row)
	if err != nil {
		return model.ProfileReview{}, fmt.Errorf("insert pending review: %w", err)
	}

	return review, nil
}

// Decide moves a pending review to a terminal status. A review that is no
// longer pending yields found=false with no row changed; the caller treats
// that as already-resolved, not as an error.
func (r *ReviewRepo) Decide(ctx context.Context, tx pgx.Tx, reviewID int64, status enums.ReviewStatus, reason *string, now time.Time) (model.ProfileReview, bool, error) {
	if reviewID <= 0 {
		return model.ProfileReview{}, false, fmt.Errorf("invalid review id")
	}
	if status != enums.ReviewStatusApproved && status != enums.ReviewStatusRejected {
		return model.ProfileReview{}, false, fmt.Errorf("invalid review decision status")
	}
	if tx == nil {
		return model.ProfileReview{}, false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, `
UPDATE profile_reviews
SET status = $2, rejection_reason = $3, reviewed_at = $4
WHERE id = $1 AND status = 'pending'
RETURNING id, profile_id, attribute, current_value, proposed_value, status, rejection_reason, created_at, reviewed_at
`, reviewID, string(status), reason, now.UTC())

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProfileReview{}, false, nil
		}
		return model.ProfileReview{}, false, fmt.Errorf("decide review: %w", err)
	}

	return review, true, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, reviewID int64) (model.ProfileReview, error) {
	if reviewID <= 0 {
		return model.ProfileReview{}, fmt.Errorf("invalid review id")
	}
	if r.pool == nil {
		return model.ProfileReview{}, ErrReviewNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, profile_id, attribute, current_value, proposed_value, status, rejection_reason, created_at, reviewed_at
FROM profile_reviews
WHERE id = $1
LIMIT 1
`, reviewID)

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProfileReview{}, ErrReviewNotFound
		}
		return model.ProfileReview{}, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

func (r *ReviewRepo) GetPending(ctx context.Context, profileID int64, attribute string) (model.ProfileReview, error) {
	if profileID <= 0 || strings.TrimSpace(attribute) == "" {
		return model.ProfileReview{}, fmt.Errorf("invalid review payload")
	}
	if r.pool == nil {
		return model.ProfileReview{}, ErrReviewNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, profile_id, attribute, current_value, proposed_value, status, rejection_reason, created_at, reviewed_at
FROM profile_reviews
WHERE profile_id = $1 AND attribute = $2 AND status = 'pending'
LIMIT 1
`, profileID, strings.TrimSpace(attribute))

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProfileReview{}, ErrReviewNotFound
		}
		return model.ProfileReview{}, fmt.Errorf("get pending review: %w", err)
	}

	return review, nil
}

// InsertHistory appends the immutable audit record written whenever a
// review leaves pending. History rows are never updated or deleted.
func (r *ReviewRepo) InsertHistory(ctx context.Context, tx pgx.Tx, h model.ReviewHistory, now time.Time) error {
	if h.ReviewID <= 0 || h.ProfileID <= 0 || strings.TrimSpace(h.Attribute) == "" {
		return fmt.Errorf("invalid review history payload")
	}
	if !h.Status.Terminal() {
		return fmt.Errorf("review history requires a terminal status")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO review_history (
	review_id,
	profile_id,
	attribute,
	old_value,
	new_value,
	status,
	reason,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, h.ReviewID, h.ProfileID, strings.TrimSpace(h.Attribute), h.OldValue, h.NewValue, string(h.Status), h.Reason, now.UTC()); err != nil {
		return fmt.Errorf("insert review history: %w", err)
	}

	return nil
}

func (r *ReviewRepo) ListHistory(ctx context.Context, profileID int64, limit int) ([]model.ReviewHistory, error) {
	if profileID <= 0 {
		return nil, fmt.Errorf("invalid profile id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return []model.ReviewHistory{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, review_id, profile_id, attribute, old_value, new_value, status, reason, created_at
FROM review_history
WHERE profile_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list review history: %w", err)
	}
	defer rows.Close()

	items := make([]model.ReviewHistory, 0, limit)
	for rows.Next() {
		var item model.ReviewHistory
		var status string
		if err := rows.Scan(
			&item.ID,
			&item.ReviewID,
			&item.ProfileID,
			&item.Attribute,
			&item.OldValue,
			&item.NewValue,
			&status,
			&item.Reason,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review history: %w", err)
		}
		item.Status = enums.ReviewStatus(status)
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate review history: %w", rows.Err())
	}

	return items, nil
}

func scanReview(row pgx.Row) (model.ProfileReview, error) {
	var review model.ProfileReview
	var status string
	if err := row.Scan(
		&review.ID,
		&review.ProfileID,
		&review.Attribute,
		&review.CurrentValue,
		&review.ProposedValue,
		&status,
		&review.RejectionReason,
		&review.CreatedAt,
		&review.ReviewedAt,
	); err != nil {
		return model.ProfileReview{}, err
	}
	review.Status = enums.ReviewStatus(status)

	return review, nil
}
