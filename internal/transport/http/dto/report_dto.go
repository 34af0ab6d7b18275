package dto

type ReportRequest struct {
	ReportedProfileID int64  `json:"reported_profile_id"`
	Reason            string `json:"reason"`
}
