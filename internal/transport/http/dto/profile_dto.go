package dto

type UpsertProfileRequest struct {
	ProfileID        int64    `json:"profile_id"`
	DisplayName      string   `json:"display_name"`
	Bio              string   `json:"bio,omitempty"`
	Gender           string   `json:"gender"`
	GenderPreference []string `json:"gender_preference"`
	Photos           []string `json:"photos,omitempty"`
	MatchingPrompt   string   `json:"matching_prompt,omitempty"`
	WalletAddress    string   `json:"wallet_address,omitempty"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}
