package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
)

type DirectMessage struct {
	ID          uuid.UUID           `json:"message_id"`
	SenderID    int64               `json:"sender_id"`
	RecipientID int64               `json:"recipient_id"`
	Content     string              `json:"content"`
	Type        enums.MessageType   `json:"type"`
	Status      enums.MessageStatus `json:"status"`
	AudioClipID *int64              `json:"audio_clip_id"`
	AudioURL    *string             `json:"audio_url"`
	SentAt      time.Time           `json:"sent_at"`
	EditedAt    *time.Time          `json:"edited_at"`
}

// AudioClip lives in a separate catalog; messages reference it by id and
// tolerate its absence.
type AudioClip struct {
	ID             int64     `json:"id"`
	OwnerProfileID int64     `json:"owner_profile_id"`
	ObjectKey      string    `json:"object_key"`
	DurationSec    int       `json:"duration_sec"`
	CreatedAt      time.Time `json:"created_at"`
}
