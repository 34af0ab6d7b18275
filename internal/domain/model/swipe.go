package model

import (
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
)

type Swipe struct {
	ID              int64           `json:"id"`
	ActorProfileID  int64           `json:"actor_profile_id"`
	TargetProfileID int64           `json:"target_profile_id"`
	Type            enums.SwipeType `json:"swipe_type"`
	Cost            float64         `json:"cost"`
	IsRefunded      bool            `json:"is_refunded"`
	CreatedAt       time.Time       `json:"created_at"`
}
