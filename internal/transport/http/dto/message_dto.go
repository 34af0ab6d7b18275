package dto

type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	AudioClipID int64  `json:"audio_clip_id,omitempty"`
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

type MarkReadRequest struct {
	SenderID int64 `json:"sender_id"`
}

type AffectedResponse struct {
	Affected bool `json:"affected"`
}

type AffectedCountResponse struct {
	Affected int64 `json:"affected"`
}
