package model

import (
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
)

type Profile struct {
	ID                 int64                    `json:"id"`
	DisplayName        string                   `json:"display_name"`
	Bio                string                   `json:"bio"`
	Gender             string                   `json:"gender"`
	GenderPreference   []string                 `json:"gender_preference"`
	Photos             []string                 `json:"photos"`
	MatchingPrompt     string                   `json:"matching_prompt"`
	WalletAddress      string                   `json:"wallet_address"`
	VerificationStatus enums.VerificationStatus `json:"verification_status"`
	IsActive           bool                     `json:"is_active"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}
