package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

const (
	signatureHeader = "X-Webhook-Signature"

	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

type EventStore interface {
	ClaimDue(ctx context.Context, limit int, now time.Time) ([]model.OutboxEvent, error)
	MarkDelivered(ctx context.Context, eventID uuid.UUID, now time.Time) error
	Reschedule(ctx context.Context, eventID uuid.UUID, nextRetryAt time.Time, dead bool) error
}

type Signer interface {
	Sign(body []byte) string
}

type Config struct {
	TargetURL   string
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Dispatcher drains the outbox and delivers settlement events at least
// once. Delivery runs outside any request transaction; a dead target only
// delays events, it never loses them.
type Dispatcher struct {
	store  EventStore
	signer Signer
	client *http.Client
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(store EventStore, signer Signer, client *http.Client, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		store:  store,
		signer: signer,
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	if d.store == nil || d.signer == nil {
		return fmt.Errorf("dispatcher dependencies are not configured")
	}
	if d.cfg.TargetURL == "" {
		return fmt.Errorf("dispatcher target url is empty")
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil {
				d.logger.Error("outbox pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce claims one batch of due events and attempts delivery. It returns
// how many events were delivered in this pass.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now().UTC()

	events, err := d.store.ClaimDue(ctx, d.cfg.BatchSize, now)
	if err != nil {
		return 0, fmt.Errorf("claim due events: %w", err)
	}

	delivered := 0
	for _, event := range events {
		if err := d.deliver(ctx, event); err != nil {
			d.retryLater(ctx, event, err)
			continue
		}
		if err := d.store.MarkDelivered(ctx, event.ID, d.now().UTC()); err != nil {
			return delivered, fmt.Errorf("mark event delivered: %w", err)
		}
		delivered++
	}

	return delivered, nil
}

type envelope struct {
	Event  string          `json:"event"`
	Schema string          `json:"schema"`
	Table  string          `json:"table"`
	Data   json.RawMessage `json:"data"`
}

func (d *Dispatcher) deliver(ctx context.Context, event model.OutboxEvent) error {
	body, err := json.Marshal(envelope{
		Event:  event.Event,
		Schema: event.Schema,
		Table:  event.Table,
		Data:   json.RawMessage(event.Payload),
	})
	if err != nil {
		return fmt.Errorf("marshal event body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.TargetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, d.signer.Sign(body))

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected settlement status: %d", resp.StatusCode)
	}

	return nil
}

func (d *Dispatcher) retryLater(ctx context.Context, event model.OutboxEvent, cause error) {
	dead := event.Attempts >= d.cfg.MaxAttempts
	next := d.now().UTC().Add(backoffFor(event.Attempts))

	if err := d.store.Reschedule(ctx, event.ID, next, dead); err != nil {
		d.logger.Error("reschedule event failed",
			zap.Error(err),
			zap.String("event_id", event.ID.String()),
		)
		return
	}

	if dead {
		d.logger.Error("event moved to dead letter",
			zap.Error(cause),
			zap.String("event_id", event.ID.String()),
			zap.Int("attempts", event.Attempts),
		)
		return
	}

	d.logger.Warn("event delivery failed",
		zap.Error(cause),
		zap.String("event_id", event.ID.String()),
		zap.Int("attempts", event.Attempts),
		zap.Time("next_retry_at", next),
	)
}

func backoffFor(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	backoff := baseBackoff
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
