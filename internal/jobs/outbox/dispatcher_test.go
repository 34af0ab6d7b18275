package outbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okabanov/matcha/backend/internal/domain/model"
	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
)

type eventStoreStub struct {
	due         []model.OutboxEvent
	delivered   []uuid.UUID
	rescheduled []rescheduleCall
}

type rescheduleCall struct {
	EventID     uuid.UUID
	NextRetryAt time.Time
	Dead        bool
}

func (s *eventStoreStub) ClaimDue(context.Context, int, time.Time) ([]model.OutboxEvent, error) {
	return s.due, nil
}

func (s *eventStoreStub) MarkDelivered(_ context.Context, eventID uuid.UUID, _ time.Time) error {
	s.delivered = append(s.delivered, eventID)
	return nil
}

func (s *eventStoreStub) Reschedule(_ context.Context, eventID uuid.UUID, nextRetryAt time.Time, dead bool) error {
	s.rescheduled = append(s.rescheduled, rescheduleCall{EventID: eventID, NextRetryAt: nextRetryAt, Dead: dead})
	return nil
}

func testEvent(attempts int) model.OutboxEvent {
	return model.OutboxEvent{
		ID:       uuid.New(),
		Event:    "insert",
		Schema:   "public",
		Table:    "swipes",
		RowID:    7,
		Payload:  []byte(`{"id":7,"swipe_type":"kiss","cost":0.5}`),
		Attempts: attempts,
	}
}

func TestRunOnceDeliversSignedEnvelope(t *testing.T) {
	signer, err := settlementsvc.NewSigner("hook-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	var gotBody []byte
	var gotSignature string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	event := testEvent(1)
	store := &eventStoreStub{due: []model.OutboxEvent{event}}
	dispatcher := NewDispatcher(store, signer, target.Client(), Config{TargetURL: target.URL}, nil)

	delivered, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered event, got %d", delivered)
	}
	if len(store.delivered) != 1 || store.delivered[0] != event.ID {
		t.Fatalf("expected event marked delivered, got %v", store.delivered)
	}

	if !signer.Verify(gotBody, gotSignature) {
		t.Fatalf("signature does not verify against delivered body")
	}

	var body struct {
		Event  string          `json:"event"`
		Schema string          `json:"schema"`
		Table  string          `json:"table"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("decode delivered body: %v", err)
	}
	if body.Event != "insert" || body.Schema != "public" || body.Table != "swipes" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if string(body.Data) != string(event.Payload) {
		t.Fatalf("unexpected payload: %s", body.Data)
	}
}

func TestRunOnceReschedulesOnServerError(t *testing.T) {
	signer, err := settlementsvc.NewSigner("hook-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer target.Close()

	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	event := testEvent(2)
	store := &eventStoreStub{due: []model.OutboxEvent{event}}
	dispatcher := NewDispatcher(store, signer, target.Client(), Config{TargetURL: target.URL, MaxAttempts: 8}, nil)
	dispatcher.now = func() time.Time { return now }

	delivered, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
	if len(store.rescheduled) != 1 {
		t.Fatalf("expected one reschedule, got %d", len(store.rescheduled))
	}

	call := store.rescheduled[0]
	if call.Dead {
		t.Fatalf("event must not be dead after 2 attempts")
	}
	if want := now.Add(time.Minute); !call.NextRetryAt.Equal(want) {
		t.Fatalf("unexpected next retry: got %v want %v", call.NextRetryAt, want)
	}
}

func TestRunOnceMovesExhaustedEventToDeadLetter(t *testing.T) {
	signer, err := settlementsvc.NewSigner("hook-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer target.Close()

	event := testEvent(8)
	store := &eventStoreStub{due: []model.OutboxEvent{event}}
	dispatcher := NewDispatcher(store, signer, target.Client(), Config{TargetURL: target.URL, MaxAttempts: 8}, nil)

	if _, err := dispatcher.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.rescheduled) != 1 || !store.rescheduled[0].Dead {
		t.Fatalf("expected dead-letter reschedule, got %+v", store.rescheduled)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 30 * time.Second},
		{attempts: 1, want: 30 * time.Second},
		{attempts: 2, want: time.Minute},
		{attempts: 3, want: 2 * time.Minute},
		{attempts: 7, want: 32 * time.Minute},
		{attempts: 8, want: time.Hour},
		{attempts: 20, want: time.Hour},
	}

	for _, tc := range cases {
		if got := backoffFor(tc.attempts); got != tc.want {
			t.Fatalf("attempts=%d: got %v want %v", tc.attempts, got, tc.want)
		}
	}
}
