package settlement

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
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

const refundKind = "settlement_refund"

var (
	ErrValidation = errors.New("validation error")
)

type SettlementStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, s model.OnchainSettlement, now time.Time) (model.OnchainSettlement, error)
	GetByTxID(ctx context.Context, txID string) (model.OnchainSettlement, error)
}

type SwipeStore interface {
	GetByID(ctx context.Context, swipeID int64) (pgrepo.SwipeRecord, error)
	MarkRefunded(ctx context.Context, tx pgx.Tx, swipeID int64) (bool, error)
}

type WalletStore interface {
	Credit(ctx context.Context, tx pgx.Tx, profileID int64, amount float64, swipeID int64, kind string, now time.Time) error
}

type ApplyResult struct {
	Settlement     model.OnchainSettlement
	RefundedSwipes []int64
}

type Service struct {
	pool        *pgxpool.Pool
	settlements SettlementStore
	swipeStore  SwipeStore
	walletStore WalletStore
	now         func() time.Time
}

type Dependencies struct {
	Pool        *pgxpool.Pool
	Settlements SettlementStore
	SwipeStore  SwipeStore
	WalletStore WalletStore
}

func NewService(deps Dependencies) *Service {
	return &Service{
		pool:        deps.Pool,
		settlements: deps.Settlements,
		swipeStore:  deps.SwipeStore,
		walletStore: deps.WalletStore,
		now:         time.Now,
	}
}

// Apply records an inbound settlement update. Repeated deliveries of the
// same transaction id converge on the same row. A failed settlement marks
// its swipes refunded and credits the cost back; the refund flag guards
// against crediting twice.
func (s *Service) Apply(ctx context.Context, settlement model.OnchainSettlement) (ApplyResult, error) {
	if strings.TrimSpace(settlement.TxID) == "" || settlement.SwipeID <= 0 {
		return ApplyResult{}, ErrValidation
	}
	if settlement.Amount < 0 || settlement.Fee < 0 {
		return ApplyResult{}, ErrValidation
	}
	if !settlement.Status.Valid() {
		return ApplyResult{}, ErrValidation
	}
	if s.settlements == nil || s.swipeStore == nil || s.walletStore == nil {
		return ApplyResult{}, fmt.Errorf("settlement dependencies are not configured")
	}

	now := s.now().UTC()

	swipeIDs := []int64{settlement.SwipeID}
	if settlement.CounterSwipeID != nil && *settlement.CounterSwipeID > 0 {
		swipeIDs = append(swipeIDs, *settlement.CounterSwipeID)
	}

	// Actor and cost are immutable once the swipe exists, so they are
	// safe to read outside the settlement transaction.
	swipes := make(map[int64]pgrepo.SwipeRecord, len(swipeIDs))
	for _, id := range swipeIDs {
		record, err := s.swipeStore.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeNotFound) {
				return ApplyResult{}, ErrValidation
			}
			return ApplyResult{}, fmt.Errorf("load settled swipe: %w", err)
		}
		swipes[id] = record
	}

	var result ApplyResult
	if err := pgrepo.WithTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		stored, err := s.settlements.Upsert(txCtx, tx, settlement, now)
		if err != nil {
			return err
		}
		result.Settlement = stored

		if settlement.Status != enums.SettlementStatusFailed {
			return nil
		}

		for _, id := range swipeIDs {
			refunded, err := s.swipeStore.MarkRefunded(txCtx, tx, id)
			if err != nil {
				return err
			}
			if !refunded {
				continue
			}
			record := swipes[id]
			if err := s.walletStore.Credit(txCtx, tx, record.ActorProfileID, record.Cost, id, refundKind, now); err != nil {
				return err
			}
			result.RefundedSwipes = append(result.RefundedSwipes, id)
		}
		return nil
	}); err != nil {
		return ApplyResult{}, err
	}

	return result, nil
}

func (s *Service) GetByTxID(ctx context.Context, txID string) (model.OnchainSettlement, error) {
	if strings.TrimSpace(txID) == "" {
		return model.OnchainSettlement{}, ErrValidation
	}
	if s.settlements == nil {
		return model.OnchainSettlement{}, fmt.Errorf("settlement dependencies are not configured")
	}
	return s.settlements.GetByTxID(ctx, txID)
}
