package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/okabanov/matcha/backend/internal/config"
	s3infra "github.com/okabanov/matcha/backend/internal/infra/s3"
	"github.com/okabanov/matcha/backend/internal/infra/telegram"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
	redrepo "github.com/okabanov/matcha/backend/internal/repo/redis"
	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	candidatesvc "github.com/okabanov/matcha/backend/internal/services/candidates"
	messagesvc "github.com/okabanov/matcha/backend/internal/services/messages"
	profilesvc "github.com/okabanov/matcha/backend/internal/services/profiles"
	ratesvc "github.com/okabanov/matcha/backend/internal/services/rate"
	reportsvc "github.com/okabanov/matcha/backend/internal/services/reports"
	reviewsvc "github.com/okabanov/matcha/backend/internal/services/reviews"
	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
	swipesvc "github.com/okabanov/matcha/backend/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	profileRepo := pgrepo.NewProfileRepo(pool)
	candidateRepo := pgrepo.NewCandidateRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	walletRepo := pgrepo.NewWalletRepo(pool)
	outboxRepo := pgrepo.NewOutboxRepo(pool)
	settlementRepo := pgrepo.NewSettlementRepo(pool)
	reviewRepo := pgrepo.NewReviewRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	clipRepo := pgrepo.NewClipRepo(pool)
	reportRepo := pgrepo.NewReportRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	signer, err := settlementsvc.NewSigner(cfg.Settlement.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("build settlement signer: %w", err)
	}

	var reviewNotifier reviewsvc.Notifier
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg.Telegram.BotToken)
		if err != nil {
			log.Warn("telegram init failed, moderation cards disabled", zap.Error(err))
		} else {
			reviewNotifier = telegram.NewReviewNotifier(bot, cfg.Telegram.ModeratorChatID)
		}
	}

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Limits.SwipesPerMinute,
		cfg.Limits.SwipesPer10Seconds,
	)
	candidateService := candidatesvc.NewService(candidatesvc.Dependencies{
		Profiles:   profileRepo,
		Candidates: candidateRepo,
	}, candidatesvc.Config{
		DefaultPageSize: cfg.Limits.CandidatePageSize,
		MaxPageSize:     cfg.Limits.CandidatePageMax,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Pool:        pool,
		SwipeStore:  swipeRepo,
		WalletStore: walletRepo,
		Outbox:      outboxRepo,
		RateLimiter: rateLimiter,
	}, swipesvc.Config{
		DefaultKissCost: cfg.Limits.KissCost,
		DefaultRugCost:  cfg.Limits.RugCost,
	})
	settlementService := settlementsvc.NewService(settlementsvc.Dependencies{
		Pool:        pool,
		Settlements: settlementRepo,
		SwipeStore:  swipeRepo,
		WalletStore: walletRepo,
	})
	reviewService := reviewsvc.NewService(reviewsvc.Dependencies{
		Pool:     pool,
		Reviews:  reviewRepo,
		Profiles: profileRepo,
		Notifier: reviewNotifier,
	})
	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Profiles: profileRepo,
		Wallets:  walletRepo,
	})
	reportService := reportsvc.NewService(reportsvc.Dependencies{
		Reports:  reportRepo,
		Profiles: profileRepo,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	clipStorage := messagesvc.NewS3ClipStorage(s3Client, cfg.S3.Bucket)
	messageService := messagesvc.NewService(messagesvc.Dependencies{
		Messages: messageRepo,
		Clips:    clipRepo,
		Storage:  clipStorage,
	}, messagesvc.Config{
		DefaultPageSize: cfg.Limits.ThreadPageSize,
		MaxPageSize:     cfg.Limits.ThreadPageMax,
	})

	RegisterRoutes(r, Dependencies{
		CandidateService:  candidateService,
		SwipeService:      swipeService,
		SettlementService: settlementService,
		SettlementSigner:  signer,
		ReviewService:     reviewService,
		MessageService:    messageService,
		ProfileService:    profileService,
		ReportService:     reportService,
		TokenManager:      jwtManager,
		Logger:            log,
		Config:            cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
