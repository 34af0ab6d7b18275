package model

import "time"

type Wallet struct {
	ProfileID int64     `json:"profile_id"`
	Address   string    `json:"address"`
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is a single ledger movement on a wallet. Debits carry a
// negative amount, credits a positive one.
type Transaction struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	SwipeID   *int64    `json:"swipe_id"`
	Amount    float64   `json:"amount"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
