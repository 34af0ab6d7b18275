package dto

// SettlementWebhookRequest is the inbound change event from the settlement
// pipeline. The envelope mirrors the outbound format; receivers dedupe by
// the embedded transaction id.
type SettlementWebhookRequest struct {
	Event  string         `json:"event"`
	Schema string         `json:"schema"`
	Table  string         `json:"table"`
	Data   SettlementData `json:"data"`
}

type SettlementData struct {
	TxID            string  `json:"tx_id"`
	SwipeID         int64   `json:"swipe_id"`
	CounterSwipeID  *int64  `json:"counter_swipe_id,omitempty"`
	Amount          float64 `json:"amount"`
	Fee             float64 `json:"fee"`
	Status          string  `json:"status"`
	SenderWallet    string  `json:"sender_wallet"`
	RecipientWallet string  `json:"recipient_wallet"`
}
