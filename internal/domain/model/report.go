package model

import "time"

type Report struct {
	ID                int64     `json:"id"`
	ProfileID         int64     `json:"profile_id"`
	ReportedProfileID int64     `json:"reported_profile_id"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
}
