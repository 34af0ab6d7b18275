package enums

type VerificationStatus string

const (
	VerificationStatusUnverified    VerificationStatus = "unverified"
	VerificationStatusInitialReview VerificationStatus = "initial_review"
	VerificationStatusVerified      VerificationStatus = "verified"
)
