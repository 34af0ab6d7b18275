package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Insert(ctx context.Context, m model.DirectMessage, now time.Time) (model.DirectMessage, error) {
	if m.SenderID <= 0 || m.RecipientID <= 0 || m.SenderID == m.RecipientID {
		return model.DirectMessage{}, fmt.Errorf("invalid message payload")
	}
	if m.Type == enums.MessageTypeText && strings.TrimSpace(m.Content) == "" {
		return model.DirectMessage{}, fmt.Errorf("text message content is required")
	}
	if m.Type == enums.MessageTypeAudio && m.AudioClipID == nil {
		return model.DirectMessage{}, fmt.Errorf("audio message clip reference is required")
	}
	if r.pool == nil {
		return model.DirectMessage{}, fmt.Errorf("postgres pool is nil")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var out model.DirectMessage
	var msgType, status string
	err := r.pool.QueryRow(ctx, `
INSERT INTO direct_messages (
	id,
	sender_id,
	recipient_id,
	content,
	type,
	status,
	audio_clip_id,
	sent_at
) VALUES ($1, $2, $3, $4, $5, 'sent', $6, $7)
RETURNING id, sender_id, recipient_id, content, type, status, audio_clip_id, sent_at, edited_at
`, m.ID, m.SenderID, m.RecipientID, m.Content, string(m.Type), m.AudioClipID, now.UTC()).Scan(
		&out.ID,
		&out.SenderID,
		&out.RecipientID,
		&out.Content,
		&msgType,
		&status,
		&out.AudioClipID,
		&out.SentAt,
		&out.EditedAt,
	)
	if err != nil {
		return model.DirectMessage{}, fmt.Errorf("insert message: %w", err)
	}
	out.Type = enums.MessageType(msgType)
	out.Status = enums.MessageStatus(status)

	return out, nil
}

// Edit rewrites content only when the caller is the sender and the message
// is younger than the edit window. An expired window or a foreign message
// is not an error; zero rows come back and the caller reads that as a
// rejected edit.
func (r *MessageRepo) Edit(ctx context.Context, messageID uuid.UUID, senderID int64, content string, editWindow time.Duration, now time.Time) (bool, error) {
	if messageID == uuid.Nil || senderID <= 0 || strings.TrimSpace(content) == "" {
		return false, fmt.Errorf("invalid message edit payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if editWindow <= 0 {
		editWindow = 5 * time.Minute
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := r.pool.Exec(ctx, `
UPDATE direct_messages
SET content = $3, edited_at = $4
WHERE id = $1
	AND sender_id = $2
	AND sent_at > $5
`, messageID, senderID, content, now.UTC(), now.UTC().Add(-editWindow))
	if err != nil {
		return false, fmt.Errorf("edit message: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes a sender's own message. No time window applies.
func (r *MessageRepo) Delete(ctx context.Context, messageID uuid.UUID, senderID int64) (bool, error) {
	if messageID == uuid.Nil || senderID <= 0 {
		return false, fmt.Errorf("invalid message delete payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM direct_messages
WHERE id = $1 AND sender_id = $2
`, messageID, senderID)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkDelivered advances sent messages addressed to recipientID. Only the
// sent state moves; read never regresses.
func (r *MessageRepo) MarkDelivered(ctx context.Context, recipientID int64) (int64, error) {
	if recipientID <= 0 {
		return 0, fmt.Errorf("invalid recipient id")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE direct_messages
SET status = 'delivered'
WHERE recipient_id = $1 AND status = 'sent'
`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark messages delivered: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkRead advances everything from one sender to read, scoped to that
// sender only.
func (r *MessageRepo) MarkRead(ctx context.Context, recipientID, senderID int64) (int64, error) {
	if recipientID <= 0 || senderID <= 0 {
		return 0, fmt.Errorf("invalid mark read payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE direct_messages
SET status = 'read'
WHERE recipient_id = $1 AND sender_id = $2 AND status IN ('sent', 'delivered')
`, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListThread pages one conversation, newest first, keyset on sent_at.
// Audio clips resolve through a LEFT JOIN so a missing catalog entry
// yields null fields instead of an error. Threads with a counterpart the
// requester reported come back empty.
func (r *MessageRepo) ListThread(ctx context.Context, requesterID, otherID int64, pageSize int, before time.Time) ([]model.DirectMessage, error) {
	if requesterID <= 0 || otherID <= 0 {
		return nil, fmt.Errorf("invalid thread payload")
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	if r.pool == nil {
		return []model.DirectMessage{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	dm.id,
	dm.sender_id,
	dm.recipient_id,
	dm.content,
	dm.type,
	dm.status,
	dm.audio_clip_id,
	ac.object_key,
	dm.sent_at,
	dm.edited_at
FROM direct_messages dm
LEFT JOIN audio_clips ac ON ac.id = dm.audio_clip_id
WHERE
	(
		(dm.sender_id = $1 AND dm.recipient_id = $2)
		OR (dm.sender_id = $2 AND dm.recipient_id = $1)
	)
	AND dm.sent_at < $3
	AND NOT EXISTS (
		SELECT 1
		FROM reports rep
		WHERE rep.profile_id = $1
			AND rep.reported_profile_id = $2
	)
ORDER BY dm.sent_at DESC, dm.id DESC
LIMIT $4
`, requesterID, otherID, before.UTC(), pageSize)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	defer rows.Close()

	items := make([]model.DirectMessage, 0, pageSize)
	for rows.Next() {
		var item model.DirectMessage
		var msgType, status string
		var objectKey *string
		if err := rows.Scan(
			&item.ID,
			&item.SenderID,
			&item.RecipientID,
			&item.Content,
			&msgType,
			&status,
			&item.AudioClipID,
			&objectKey,
			&item.SentAt,
			&item.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("scan thread message: %w", err)
		}
		item.Type = enums.MessageType(msgType)
		item.Status = enums.MessageStatus(status)
		item.AudioURL = objectKey
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate thread messages: %w", rows.Err())
	}

	return items, nil
}
