package dto

import (
	"github.com/okabanov/matcha/backend/internal/domain/model"
)

type SwipeRequest struct {
	TargetID int64   `json:"target_id"`
	Type     string  `json:"swipe_type"`
	Cost     float64 `json:"cost,omitempty"`
}

type SwipeResponse struct {
	OK           bool        `json:"ok"`
	Swipe        model.Swipe `json:"swipe"`
	MatchCreated bool        `json:"match_created"`
}
