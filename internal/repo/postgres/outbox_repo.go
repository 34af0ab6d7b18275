package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

const (
	OutboxStatusPending   = "pending"
	OutboxStatusDelivered = "delivered"
	OutboxStatusDead      = "dead"
)

type OutboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Enqueue writes the event in the caller's transaction so the event exists
// exactly when the mutation it describes commits.
func (r *OutboxRepo) Enqueue(ctx context.Context, tx pgx.Tx, event model.OutboxEvent) error {
	if event.RowID <= 0 || event.Event == "" || event.Table == "" || len(event.Payload) == 0 {
		return fmt.Errorf("invalid outbox payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO outbox_events (
	id,
	event,
	schema_name,
	table_name,
	row_id,
	payload,
	attempts,
	status,
	next_retry_at,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, 0, 'pending', $7, $7)
`, event.ID, event.Event, event.Schema, event.Table, event.RowID, event.Payload, event.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}

	return nil
}

// ClaimDue picks up to limit pending events whose retry time has come.
// SKIP LOCKED lets several dispatcher replicas drain the table without
// stepping on each other.
func (r *OutboxRepo) ClaimDue(ctx context.Context, limit int, now time.Time) ([]model.OutboxEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if r.pool == nil {
		return []model.OutboxEvent{}, nil
	}

	rows, err := r.pool.Query(ctx, `
UPDATE outbox_events
SET attempts = attempts + 1
WHERE id IN (
	SELECT id
	FROM outbox_events
	WHERE status = 'pending' AND next_retry_at <= $1
	ORDER BY next_retry_at, created_at
	LIMIT $2
	FOR UPDATE SKIP LOCKED
)
RETURNING id, event, schema_name, table_name, row_id, payload, attempts, status, next_retry_at, created_at
`, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("claim due outbox events: %w", err)
	}
	defer rows.Close()

	items := make([]model.OutboxEvent, 0, limit)
	for rows.Next() {
		var item model.OutboxEvent
		if err := rows.Scan(
			&item.ID,
			&item.Event,
			&item.Schema,
			&item.Table,
			&item.RowID,
			&item.Payload,
			&item.Attempts,
			&item.Status,
			&item.NextRetryAt,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", rows.Err())
	}

	return items, nil
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, eventID uuid.UUID, now time.Time) error {
	if eventID == uuid.Nil {
		return fmt.Errorf("invalid outbox event id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE outbox_events
SET status = 'delivered', delivered_at = $2
WHERE id = $1
`, eventID, now.UTC()); err != nil {
		return fmt.Errorf("mark outbox event delivered: %w", err)
	}

	return nil
}

// Reschedule pushes a failed delivery into the future, or parks it as dead
// once the attempt budget is spent.
func (r *OutboxRepo) Reschedule(ctx context.Context, eventID uuid.UUID, nextRetryAt time.Time, dead bool) error {
	if eventID == uuid.Nil {
		return fmt.Errorf("invalid outbox event id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	status := OutboxStatusPending
	if dead {
		status = OutboxStatusDead
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE outbox_events
SET status = $2, next_retry_at = $3
WHERE id = $1
`, eventID, status, nextRetryAt.UTC()); err != nil {
		return fmt.Errorf("reschedule outbox event: %w", err)
	}

	return nil
}
