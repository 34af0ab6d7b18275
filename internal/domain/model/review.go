package model

import (
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
)

type ProfileReview struct {
	ID              int64              `json:"id"`
	ProfileID       int64              `json:"profile_id"`
	Attribute       string             `json:"attribute"`
	CurrentValue    string             `json:"current_value"`
	ProposedValue   string             `json:"proposed_value"`
	Status          enums.ReviewStatus `json:"status"`
	RejectionReason *string            `json:"rejection_reason"`
	CreatedAt       time.Time          `json:"created_at"`
	ReviewedAt      *time.Time         `json:"reviewed_at"`
}

// ReviewHistory rows are written once, when a review leaves pending, and
// never mutated afterwards.
type ReviewHistory struct {
	ID        int64              `json:"id"`
	ReviewID  int64              `json:"review_id"`
	ProfileID int64              `json:"profile_id"`
	Attribute string             `json:"attribute"`
	OldValue  string             `json:"old_value"`
	NewValue  string             `json:"new_value"`
	Status    enums.ReviewStatus `json:"status"`
	Reason    *string            `json:"reason"`
	CreatedAt time.Time          `json:"created_at"`
}
