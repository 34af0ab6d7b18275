package dto

type SubmitReviewRequest struct {
	Attribute     string `json:"attribute"`
	ProposedValue string `json:"proposed_value"`
}

type DecideReviewRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type DecideReviewResponse struct {
	Affected bool `json:"affected"`
}
