package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

var ErrClipNotFound = errors.New("audio clip not found")

type ClipRepo struct {
	pool *pgxpool.Pool
}

func NewClipRepo(pool *pgxpool.Pool) *ClipRepo {
	return &ClipRepo{pool: pool}
}

func (r *ClipRepo) Create(ctx context.Context, ownerID int64, objectKey string, durationSec int, now time.Time) (model.AudioClip, error) {
	if ownerID <= 0 {
		return model.AudioClip{}, fmt.Errorf("invalid clip owner id")
	}
	if strings.TrimSpace(objectKey) == "" {
		return model.AudioClip{}, fmt.Errorf("clip object key is required")
	}
	if durationSec <= 0 {
		return model.AudioClip{}, fmt.Errorf("clip duration must be positive")
	}
	if r.pool == nil {
		return model.AudioClip{}, fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var clip model.AudioClip
	err := r.pool.QueryRow(ctx, `
INSERT INTO audio_clips (
	owner_profile_id,
	object_key,
	duration_sec,
	created_at
) VALUES ($1, $2, $3, $4)
RETURNING id, owner_profile_id, object_key, duration_sec, created_at
`, ownerID, strings.TrimSpace(objectKey), durationSec, now.UTC()).Scan(
		&clip.ID,
		&clip.OwnerProfileID,
		&clip.ObjectKey,
		&clip.DurationSec,
		&clip.CreatedAt,
	)
	if err != nil {
		return model.AudioClip{}, fmt.Errorf("create audio clip: %w", err)
	}

	return clip, nil
}

func (r *ClipRepo) GetByID(ctx context.Context, clipID int64) (model.AudioClip, error) {
	if clipID <= 0 {
		return model.AudioClip{}, fmt.Errorf("invalid clip id")
	}
	if r.pool == nil {
		return model.AudioClip{}, ErrClipNotFound
	}

	var clip model.AudioClip
	err := r.pool.QueryRow(ctx, `
SELECT id, owner_profile_id, object_key, duration_sec, created_at
FROM audio_clips
WHERE id = $1
`, clipID).Scan(
		&clip.ID,
		&clip.OwnerProfileID,
		&clip.ObjectKey,
		&clip.DurationSec,
		&clip.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AudioClip{}, ErrClipNotFound
	}
	if err != nil {
		return model.AudioClip{}, fmt.Errorf("get audio clip: %w", err)
	}

	return clip, nil
}

func (r *ClipRepo) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]model.AudioClip, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid clip owner id")
	}
	if limit <= 0 {
		limit = 20
	}
	if r.pool == nil {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, owner_profile_id, object_key, duration_sec, created_at
FROM audio_clips
WHERE owner_profile_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audio clips: %w", err)
	}
	defer rows.Close()

	var clips []model.AudioClip
	for rows.Next() {
		var clip model.AudioClip
		if err := rows.Scan(
			&clip.ID,
			&clip.OwnerProfileID,
			&clip.ObjectKey,
			&clip.DurationSec,
			&clip.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audio clip: %w", err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audio clips: %w", err)
	}

	return clips, nil
}

// ListOrphanedBefore returns clips created before cutoff that no message
// references anymore, so their objects can be removed from storage.
func (r *ClipRepo) ListOrphanedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.AudioClip, error) {
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT ac.id, ac.owner_profile_id, ac.object_key, ac.duration_sec, ac.created_at
FROM audio_clips ac
LEFT JOIN direct_messages dm ON dm.audio_clip_id = ac.id
WHERE ac.created_at < $1
  AND dm.id IS NULL
ORDER BY ac.created_at ASC
LIMIT $2
`, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list orphaned audio clips: %w", err)
	}
	defer rows.Close()

	var clips []model.AudioClip
	for rows.Next() {
		var clip model.AudioClip
		if err := rows.Scan(
			&clip.ID,
			&clip.OwnerProfileID,
			&clip.ObjectKey,
			&clip.DurationSec,
			&clip.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan orphaned audio clip: %w", err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orphaned audio clips: %w", err)
	}

	return clips, nil
}

func (r *ClipRepo) Delete(ctx context.Context, clipID int64) error {
	if clipID <= 0 {
		return fmt.Errorf("invalid clip id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM audio_clips WHERE id = $1`, clipID); err != nil {
		return fmt.Errorf("delete audio clip: %w", err)
	}
	return nil
}
