package swipes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

type swipeStoreStub struct{}

func (swipeStoreStub) Create(context.Context, pgx.Tx, int64, int64, string, float64, time.Time) (pgrepo.SwipeRecord, error) {
	return pgrepo.SwipeRecord{}, nil
}

func (swipeStoreStub) HasMutualKiss(context.Context, int64, int64) (bool, error) {
	return false, nil
}

type walletStoreStub struct {
	err error
}

func (s walletStoreStub) Debit(context.Context, pgx.Tx, int64, float64, int64, time.Time) error {
	return s.err
}

type outboxStoreStub struct {
	events []model.OutboxEvent
}

func (s *outboxStoreStub) Enqueue(_ context.Context, _ pgx.Tx, event model.OutboxEvent) error {
	s.events = append(s.events, event)
	return nil
}

type rateLimiterStub struct {
	retryAfter int64
	allowed    bool
	calls      int
}

func (s *rateLimiterStub) AllowSwipe(context.Context, int64) (int64, bool, error) {
	s.calls++
	return s.retryAfter, s.allowed, nil
}

func newTestService(limiter RateLimiter) *Service {
	return NewService(Dependencies{
		SwipeStore:  swipeStoreStub{},
		WalletStore: walletStoreStub{},
		Outbox:      &outboxStoreStub{},
		RateLimiter: limiter,
	}, Config{})
}

func newRecordingService(wallet walletStoreStub, outbox *outboxStoreStub) *Service {
	svc := NewService(Dependencies{
		SwipeStore:  swipeStoreStub{},
		WalletStore: wallet,
		Outbox:      outbox,
		RateLimiter: &rateLimiterStub{allowed: true},
	}, Config{})
	svc.withTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func TestRecordSwipeRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&rateLimiterStub{allowed: true})
	ctx := context.Background()

	cases := []struct {
		name      string
		actor     int64
		target    int64
		swipeType string
		cost      float64
		want      error
	}{
		{name: "zero actor", actor: 0, target: 2, swipeType: "kiss", want: ErrValidation},
		{name: "zero target", actor: 1, target: 0, swipeType: "kiss", want: ErrValidation},
		{name: "self swipe", actor: 1, target: 1, swipeType: "kiss", want: ErrValidation},
		{name: "negative cost", actor: 1, target: 2, swipeType: "kiss", cost: -1, want: ErrValidation},
		{name: "unknown type", actor: 1, target: 2, swipeType: "superlike", want: ErrUnsupportedType},
	}

	for _, tc := range cases {
		_, err := svc.RecordSwipe(ctx, tc.actor, tc.target, tc.swipeType, tc.cost)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRecordSwipeRateLimited(t *testing.T) {
	limiter := &rateLimiterStub{allowed: false, retryAfter: 17}
	svc := newTestService(limiter)

	_, err := svc.RecordSwipe(context.Background(), 1, 2, "kiss", 0.5)

	var tooFast TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tooFast.RetryAfterSec != 17 {
		t.Fatalf("unexpected retry_after: %d", tooFast.RetryAfterSec)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected one limiter call, got %d", limiter.calls)
	}
}

func TestRecordSwipeValidationRunsBeforeRateLimiter(t *testing.T) {
	limiter := &rateLimiterStub{allowed: false, retryAfter: 30}
	svc := newTestService(limiter)

	if _, err := svc.RecordSwipe(context.Background(), 1, 1, "kiss", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if limiter.calls != 0 {
		t.Fatalf("limiter must not fire on invalid input, got %d calls", limiter.calls)
	}
}

func TestRecordSwipeMapsWalletErrors(t *testing.T) {
	ctx := context.Background()

	svc := newRecordingService(walletStoreStub{err: pgrepo.ErrWalletNotFound}, &outboxStoreStub{})
	if _, err := svc.RecordSwipe(ctx, 1, 2, "kiss", 0.5); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	svc = newRecordingService(walletStoreStub{err: pgrepo.ErrInsufficientBalance}, &outboxStoreStub{})
	if _, err := svc.RecordSwipe(ctx, 1, 2, "kiss", 0.5); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestRecordSwipeEnqueuesSettlementEvent(t *testing.T) {
	outbox := &outboxStoreStub{}
	svc := newRecordingService(walletStoreStub{}, outbox)

	if _, err := svc.RecordSwipe(context.Background(), 1, 2, "rug", 0.1); err != nil {
		t.Fatalf("record swipe: %v", err)
	}

	if len(outbox.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(outbox.events))
	}
	event := outbox.events[0]
	if event.Event != "insert" || event.Schema != "public" || event.Table != "swipes" {
		t.Fatalf("unexpected outbox envelope: %+v", event)
	}
}

func TestDefaultCostPerSwipeType(t *testing.T) {
	svc := NewService(Dependencies{}, Config{DefaultKissCost: 0.5, DefaultRugCost: 0.1})

	if got := svc.defaultCost("kiss"); got != 0.5 {
		t.Fatalf("unexpected kiss cost: %v", got)
	}
	if got := svc.defaultCost("rug"); got != 0.1 {
		t.Fatalf("unexpected rug cost: %v", got)
	}
}

func TestSwipeRowConversion(t *testing.T) {
	createdAt := time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC)
	record := pgrepo.SwipeRecord{
		ID:              41,
		ActorProfileID:  1,
		TargetProfileID: 2,
		Type:            "rug",
		Cost:            0.1,
		IsRefunded:      true,
		CreatedAt:       createdAt,
	}

	row := swipeRow(record)
	if row.ID != 41 || row.ActorProfileID != 1 || row.TargetProfileID != 2 {
		t.Fatalf("unexpected identifiers: %+v", row)
	}
	if string(row.Type) != "rug" || row.Cost != 0.1 || !row.IsRefunded {
		t.Fatalf("unexpected swipe fields: %+v", row)
	}
	if !row.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected created_at: %v", row.CreatedAt)
	}
}
