package outboxapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/okabanov/matcha/backend/internal/config"
	"github.com/okabanov/matcha/backend/internal/infra/httpclient"
	s3infra "github.com/okabanov/matcha/backend/internal/infra/s3"
	"github.com/okabanov/matcha/backend/internal/jobs/cleanup"
	"github.com/okabanov/matcha/backend/internal/jobs/outbox"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
	messagesvc "github.com/okabanov/matcha/backend/internal/services/messages"
	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
)

// App hosts the outbox dispatcher and the clip cleanup loop as a
// standalone process so settlement delivery keeps draining while the
// api binary restarts.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	dispatcher *outbox.Dispatcher
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for outbox app: %w", err)
	}

	signer, err := settlementsvc.NewSigner(cfg.Settlement.SigningSecret)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build settlement signer: %w", err)
	}

	outboxRepo := pgrepo.NewOutboxRepo(pool)
	dispatcher := outbox.NewDispatcher(
		outboxRepo,
		signer,
		httpclient.New(cfg.Settlement.RequestTimeout),
		outbox.Config{
			TargetURL:   cfg.Settlement.TargetURL,
			Interval:    cfg.Settlement.DispatchInterval,
			BatchSize:   cfg.Settlement.DispatchBatch,
			MaxAttempts: cfg.Settlement.MaxAttempts,
		},
		logger,
	)

	var cleanupJob *cleanup.Job
	if s3Client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		logger.Warn("s3 init failed, clip cleanup disabled", zap.Error(err))
	} else {
		clipRepo := pgrepo.NewClipRepo(pool)
		storage := messagesvc.NewS3ClipStorage(s3Client, cfg.S3.Bucket)
		cleanupJob = cleanup.NewClipCleanupJob(clipRepo, storage, cfg.Limits.ClipRetention, logger)
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		postgres:   pool,
		dispatcher: dispatcher,
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("outbox dispatcher started",
		zap.String("target_url", a.cfg.Settlement.TargetURL),
		zap.Duration("interval", a.cfg.Settlement.DispatchInterval),
	)

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.dispatcher.Run(ctx)
	}()
	go func() {
		errCh <- a.runCleanupLoop(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) runCleanupLoop(ctx context.Context) error {
	if a.cleanupJob == nil {
		return nil
	}

	if err := a.cleanupJob.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.cleanupJob.Run(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
