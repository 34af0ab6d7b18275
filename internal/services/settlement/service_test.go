package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

type settlementStoreStub struct {
	stored model.OnchainSettlement
	getErr error
}

func (s *settlementStoreStub) Upsert(_ context.Context, _ pgx.Tx, settlement model.OnchainSettlement, _ time.Time) (model.OnchainSettlement, error) {
	s.stored = settlement
	return settlement, nil
}

func (s *settlementStoreStub) GetByTxID(context.Context, string) (model.OnchainSettlement, error) {
	return s.stored, s.getErr
}

type settledSwipeStoreStub struct {
	swipes map[int64]pgrepo.SwipeRecord
}

func (s settledSwipeStoreStub) GetByID(_ context.Context, swipeID int64) (pgrepo.SwipeRecord, error) {
	record, ok := s.swipes[swipeID]
	if !ok {
		return pgrepo.SwipeRecord{}, pgrepo.ErrSwipeNotFound
	}
	return record, nil
}

func (s settledSwipeStoreStub) MarkRefunded(context.Context, pgx.Tx, int64) (bool, error) {
	return true, nil
}

type refundWalletStub struct{}

func (refundWalletStub) Credit(context.Context, pgx.Tx, int64, float64, int64, string, time.Time) error {
	return nil
}

func TestApplyRejectsInvalidSettlements(t *testing.T) {
	svc := NewService(Dependencies{
		Settlements: &settlementStoreStub{},
		SwipeStore:  settledSwipeStoreStub{},
		WalletStore: refundWalletStub{},
	})
	ctx := context.Background()

	cases := []struct {
		name       string
		settlement model.OnchainSettlement
	}{
		{name: "missing tx id", settlement: model.OnchainSettlement{SwipeID: 1, Status: enums.SettlementStatusConfirmed}},
		{name: "missing swipe id", settlement: model.OnchainSettlement{TxID: "0xabc", Status: enums.SettlementStatusConfirmed}},
		{name: "negative amount", settlement: model.OnchainSettlement{TxID: "0xabc", SwipeID: 1, Amount: -1, Status: enums.SettlementStatusConfirmed}},
		{name: "negative fee", settlement: model.OnchainSettlement{TxID: "0xabc", SwipeID: 1, Fee: -1, Status: enums.SettlementStatusConfirmed}},
		{name: "unknown status", settlement: model.OnchainSettlement{TxID: "0xabc", SwipeID: 1, Status: "reverted"}},
	}

	for _, tc := range cases {
		if _, err := svc.Apply(ctx, tc.settlement); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestApplyUnknownSwipeRejected(t *testing.T) {
	svc := NewService(Dependencies{
		Settlements: &settlementStoreStub{},
		SwipeStore:  settledSwipeStoreStub{swipes: map[int64]pgrepo.SwipeRecord{}},
		WalletStore: refundWalletStub{},
	})

	settlement := model.OnchainSettlement{
		TxID:    "0xabc",
		SwipeID: 404,
		Status:  enums.SettlementStatusFailed,
	}

	_, err := svc.Apply(context.Background(), settlement)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown swipe, got %v", err)
	}
}

func TestGetByTxIDRequiresTxID(t *testing.T) {
	svc := NewService(Dependencies{Settlements: &settlementStoreStub{}})

	if _, err := svc.GetByTxID(context.Background(), "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
