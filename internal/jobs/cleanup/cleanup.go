package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

const batchSize = 100

type ClipStore interface {
	ListOrphanedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.AudioClip, error)
	Delete(ctx context.Context, clipID int64) error
}

type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
}

// Job removes audio clips that were uploaded but never attached to a
// message, or whose message was deleted. The storage object goes first;
// a failed object delete keeps the row so the next run retries it.
type Job struct {
	clips     ClipStore
	storage   ObjectStorage
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewClipCleanupJob(clips ClipStore, storage ObjectStorage, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		clips:     clips,
		storage:   storage,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.clips == nil || j.storage == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	clips, err := j.clips.ListOrphanedBefore(ctx, cutoff, batchSize)
	if err != nil {
		return fmt.Errorf("list orphaned clips: %w", err)
	}

	if len(clips) == 0 {
		return nil
	}

	deleted := 0
	for _, clip := range clips {
		if err := j.storage.Delete(ctx, clip.ObjectKey); err != nil {
			j.logger.Warn("failed to delete clip object from storage", zap.Error(err), zap.String("object_key", clip.ObjectKey))
			continue
		}
		if err := j.clips.Delete(ctx, clip.ID); err != nil {
			return fmt.Errorf("delete orphaned clip row: %w", err)
		}
		deleted++
	}

	j.logger.Info("cleanup orphaned clips completed", zap.Int("deleted", deleted))
	return nil
}
