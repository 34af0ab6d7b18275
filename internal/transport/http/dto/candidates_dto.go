package dto

import (
	"github.com/okabanov/matcha/backend/internal/services/candidates"
)

type CandidatesResponse struct {
	Candidates []candidates.Candidate `json:"candidates"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
	Mode       string                 `json:"mode"`
}
