package swipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnsupportedType     = errors.New("unsupported swipe type")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWalletNotFound      = errors.New("actor wallet not found")
)

// TooFastError is returned when the swipe rate limiter rejects the actor.
type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too many swipes, retry after %d seconds", e.RetryAfterSec)
}

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, actorProfileID, targetProfileID int64, swipeType string, cost float64, now time.Time) (pgrepo.SwipeRecord, error)
	HasMutualKiss(ctx context.Context, profileA, profileB int64) (bool, error)
}

type WalletStore interface {
	Debit(ctx context.Context, tx pgx.Tx, profileID int64, amount float64, swipeID int64, now time.Time) error
}

type OutboxStore interface {
	Enqueue(ctx context.Context, tx pgx.Tx, event model.OutboxEvent) error
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, profileID int64) (int64, bool, error)
}

type Config struct {
	DefaultKissCost float64
	DefaultRugCost  float64
}

type SwipeResult struct {
	Swipe        model.Swipe
	MatchCreated bool
}

type Service struct {
	withTx      func(context.Context, func(context.Context, pgx.Tx) error) error
	swipeStore  SwipeStore
	walletStore WalletStore
	outbox      OutboxStore
	rateLimiter RateLimiter
	cfg         Config
	now         func() time.Time
}

type Dependencies struct {
	Pool        *pgxpool.Pool
	SwipeStore  SwipeStore
	WalletStore WalletStore
	Outbox      OutboxStore
	RateLimiter RateLimiter
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DefaultKissCost <= 0 {
		cfg.DefaultKissCost = 0.5
	}
	if cfg.DefaultRugCost <= 0 {
		cfg.DefaultRugCost = 0.1
	}

	s := &Service{
		swipeStore:  deps.SwipeStore,
		walletStore: deps.WalletStore,
		outbox:      deps.Outbox,
		rateLimiter: deps.RateLimiter,
		cfg:         cfg,
		now:         time.Now,
	}
	if deps.Pool != nil {
		pool := deps.Pool
		s.withTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		}
	}
	return s
}

// RecordSwipe persists one swipe: the swipe row, the wallet debit with its
// ledger entry, and the settlement outbox event commit together or not at
// all. Mutual-match state is read back from committed rows afterwards, so
// two profiles swiping each other concurrently resolve the same way from
// either side.
func (s *Service) RecordSwipe(ctx context.Context, actorID, targetID int64, swipeType string, cost float64) (SwipeResult, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return SwipeResult{}, ErrValidation
	}
	if cost < 0 {
		return SwipeResult{}, ErrValidation
	}

	kind := enums.SwipeType(swipeType)
	if !kind.Valid() {
		return SwipeResult{}, ErrUnsupportedType
	}
	if cost == 0 {
		cost = s.defaultCost(kind)
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, actorID)
		if err != nil {
			return SwipeResult{}, fmt.Errorf("apply swipe rate limiter: %w", err)
		}
		if !allowed {
			return SwipeResult{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	if s.withTx == nil || s.swipeStore == nil || s.walletStore == nil || s.outbox == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	now := s.now().UTC()

	var created pgrepo.SwipeRecord
	if err := s.withTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		record, err := s.swipeStore.Create(txCtx, tx, actorID, targetID, string(kind), cost, now)
		if err != nil {
			return err
		}
		created = record

		if err := s.walletStore.Debit(txCtx, tx, actorID, cost, record.ID, now); err != nil {
			if errors.Is(err, pgrepo.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			if errors.Is(err, pgrepo.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		payload, err := json.Marshal(swipeRow(record))
		if err != nil {
			return fmt.Errorf("marshal swipe payload: %w", err)
		}
		return s.outbox.Enqueue(txCtx, tx, model.OutboxEvent{
			Event:     "insert",
			Schema:    "public",
			Table:     "swipes",
			RowID:     record.ID,
			Payload:   payload,
			CreatedAt: now,
		})
	}); err != nil {
		return SwipeResult{}, err
	}

	result := SwipeResult{Swipe: swipeRow(created)}
	if kind == enums.SwipeTypeKiss {
		mutual, err := s.swipeStore.HasMutualKiss(ctx, actorID, targetID)
		if err != nil {
			return SwipeResult{}, fmt.Errorf("check mutual kiss: %w", err)
		}
		result.MatchCreated = mutual
	}

	return result, nil
}

func (s *Service) defaultCost(kind enums.SwipeType) float64 {
	if kind == enums.SwipeTypeRug {
		return s.cfg.DefaultRugCost
	}
	return s.cfg.DefaultKissCost
}

func swipeRow(record pgrepo.SwipeRecord) model.Swipe {
	return model.Swipe{
		ID:              record.ID,
		ActorProfileID:  record.ActorProfileID,
		TargetProfileID: record.TargetProfileID,
		Type:            enums.SwipeType(record.Type),
		Cost:            record.Cost,
		IsRefunded:      record.IsRefunded,
		CreatedAt:       record.CreatedAt,
	}
}
