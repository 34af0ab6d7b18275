package model

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a durable webhook delivery record. It is written in the
// same transaction as the ledger mutation it describes and drained by the
// outbox dispatcher.
type OutboxEvent struct {
	ID          uuid.UUID  `json:"id"`
	Event       string     `json:"event"`
	Schema      string     `json:"schema"`
	Table       string     `json:"table"`
	RowID       int64      `json:"row_id"`
	Payload     []byte     `json:"payload"`
	Attempts    int        `json:"attempts"`
	Status      string     `json:"status"`
	NextRetryAt time.Time  `json:"next_retry_at"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}
