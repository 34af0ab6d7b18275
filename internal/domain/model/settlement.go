package model

import (
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
)

// OnchainSettlement links up to two swipes to one external transaction.
type OnchainSettlement struct {
	ID              int64                  `json:"id"`
	TxID            string                 `json:"tx_id"`
	SwipeID         int64                  `json:"swipe_id"`
	CounterSwipeID  *int64                 `json:"counter_swipe_id"`
	Amount          float64                `json:"amount"`
	Fee             float64                `json:"fee"`
	Status          enums.SettlementStatus `json:"status"`
	SenderWallet    string                 `json:"sender_wallet"`
	RecipientWallet string                 `json:"recipient_wallet"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
