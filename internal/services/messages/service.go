package messages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

const (
	defaultEditWindow = 5 * time.Minute
	clipURLTTL        = 5 * time.Minute
)

var (
	ErrValidation   = errors.New("validation error")
	ErrClipNotFound = errors.New("audio clip not found")
)

type MessageStore interface {
	Insert(ctx context.Context, m model.DirectMessage, now time.Time) (model.DirectMessage, error)
	Edit(ctx context.Context, messageID uuid.UUID, senderID int64, content string, editWindow time.Duration, now time.Time) (bool, error)
	Delete(ctx context.Context, messageID uuid.UUID, senderID int64) (bool, error)
	MarkDelivered(ctx context.Context, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, recipientID, senderID int64) (int64, error)
	ListThread(ctx context.Context, requesterID, otherID int64, pageSize int, before time.Time) ([]model.DirectMessage, error)
}

type ClipStore interface {
	Create(ctx context.Context, ownerID int64, objectKey string, durationSec int, now time.Time) (model.AudioClip, error)
	GetByID(ctx context.Context, clipID int64) (model.AudioClip, error)
}

type ClipStorage interface {
	PutClip(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	EditWindow      time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	messages MessageStore
	clips    ClipStore
	storage  ClipStorage
	cfg      Config
	now      func() time.Time
}

type Dependencies struct {
	Messages MessageStore
	Clips    ClipStore
	Storage  ClipStorage
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.EditWindow <= 0 {
		cfg.EditWindow = defaultEditWindow
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	return &Service{
		messages: deps.Messages,
		clips:    deps.Clips,
		storage:  deps.Storage,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) SendText(ctx context.Context, senderID, recipientID int64, content string) (model.DirectMessage, error) {
	if senderID <= 0 || recipientID <= 0 || senderID == recipientID {
		return model.DirectMessage{}, ErrValidation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.DirectMessage{}, ErrValidation
	}
	if s.messages == nil {
		return model.DirectMessage{}, fmt.Errorf("message dependencies are not configured")
	}

	return s.messages.Insert(ctx, model.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Type:        enums.MessageTypeText,
		Status:      enums.MessageStatusSent,
	}, s.now().UTC())
}

// SendAudio references a clip from the catalog. The clip must exist at send
// time; if it disappears later, thread listings still return the message
// with null clip fields.
func (s *Service) SendAudio(ctx context.Context, senderID, recipientID, clipID int64) (model.DirectMessage, error) {
	if senderID <= 0 || recipientID <= 0 || senderID == recipientID || clipID <= 0 {
		return model.DirectMessage{}, ErrValidation
	}
	if s.messages == nil || s.clips == nil {
		return model.DirectMessage{}, fmt.Errorf("message dependencies are not configured")
	}

	clip, err := s.clips.GetByID(ctx, clipID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrClipNotFound) {
			return model.DirectMessage{}, ErrClipNotFound
		}
		return model.DirectMessage{}, fmt.Errorf("load audio clip: %w", err)
	}
	if clip.OwnerProfileID != senderID {
		return model.DirectMessage{}, ErrValidation
	}

	return s.messages.Insert(ctx, model.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        enums.MessageTypeAudio,
		Status:      enums.MessageStatusSent,
		AudioClipID: &clipID,
	}, s.now().UTC())
}

// Edit rewrites the content of a message. Only the sender may edit and only
// within the edit window; outside it the call reports affected=false and
// changes nothing.
func (s *Service) Edit(ctx context.Context, messageID uuid.UUID, senderID int64, content string) (bool, error) {
	if messageID == uuid.Nil || senderID <= 0 {
		return false, ErrValidation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return false, ErrValidation
	}
	if s.messages == nil {
		return false, fmt.Errorf("message dependencies are not configured")
	}

	return s.messages.Edit(ctx, messageID, senderID, content, s.cfg.EditWindow, s.now().UTC())
}

func (s *Service) Delete(ctx context.Context, messageID uuid.UUID, senderID int64) (bool, error) {
	if messageID == uuid.Nil || senderID <= 0 {
		return false, ErrValidation
	}
	if s.messages == nil {
		return false, fmt.Errorf("message dependencies are not configured")
	}

	return s.messages.Delete(ctx, messageID, senderID)
}

// MarkDelivered moves every sent message addressed to the recipient to
// delivered. It is called from the recipient's fetch path only.
func (s *Service) MarkDelivered(ctx context.Context, recipientID int64) (int64, error) {
	if recipientID <= 0 {
		return 0, ErrValidation
	}
	if s.messages == nil {
		return 0, fmt.Errorf("message dependencies are not configured")
	}

	return s.messages.MarkDelivered(ctx, recipientID)
}

// MarkRead is an explicit recipient action scoped to one sender.
func (s *Service) MarkRead(ctx context.Context, recipientID, senderID int64) (int64, error) {
	if recipientID <= 0 || senderID <= 0 || recipientID == senderID {
		return 0, ErrValidation
	}
	if s.messages == nil {
		return 0, fmt.Errorf("message dependencies are not configured")
	}

	return s.messages.MarkRead(ctx, recipientID, senderID)
}

// ListThread returns one keyset page, newest first. Audio messages carry a
// presigned playback URL when their clip still exists.
func (s *Service) ListThread(ctx context.Context, requesterID, otherID int64, pageSize int, before time.Time) ([]model.DirectMessage, error) {
	if requesterID <= 0 || otherID <= 0 || requesterID == otherID || pageSize < 0 {
		return nil, ErrValidation
	}
	if s.messages == nil {
		return nil, fmt.Errorf("message dependencies are not configured")
	}

	if pageSize == 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	// Fetching is the recipient's delivery acknowledgement: everything
	// addressed to the requester moves sent -> delivered before the page
	// is read.
	if _, err := s.messages.MarkDelivered(ctx, requesterID); err != nil {
		return nil, fmt.Errorf("mark delivered on fetch: %w", err)
	}

	page, err := s.messages.ListThread(ctx, requesterID, otherID, pageSize, before)
	if err != nil {
		return nil, err
	}

	for i := range page {
		if page[i].AudioURL == nil || s.storage == nil {
			continue
		}
		signed, err := s.storage.PresignGet(ctx, *page[i].AudioURL, clipURLTTL)
		if err != nil {
			return nil, fmt.Errorf("presign clip url: %w", err)
		}
		page[i].AudioURL = &signed
	}

	return page, nil
}

// UploadClip stores the audio object and registers it in the catalog.
func (s *Service) UploadClip(ctx context.Context, ownerID int64, body io.Reader, size int64, contentType string, durationSec int) (model.AudioClip, error) {
	if ownerID <= 0 || body == nil || size <= 0 || durationSec <= 0 {
		return model.AudioClip{}, ErrValidation
	}
	if s.clips == nil || s.storage == nil {
		return model.AudioClip{}, fmt.Errorf("message dependencies are not configured")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("clips/%d/%s", ownerID, uuid.NewString())

	if err := s.storage.PutClip(ctx, key, body, size, contentType); err != nil {
		return model.AudioClip{}, err
	}

	return s.clips.Create(ctx, ownerID, key, durationSec, now)
}
