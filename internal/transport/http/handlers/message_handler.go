package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	messagesvc "github.com/okabanov/matcha/backend/internal/services/messages"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

const maxClipUploadSize = 10 << 20 // 10 MiB

type MessageHandler struct {
	service *messagesvc.Service
}

func NewMessageHandler(service *messagesvc.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.RecipientID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "recipient_id is required")
		return
	}

	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if kind == "" {
		kind = "text"
	}

	var (
		message any
		err     error
	)
	switch kind {
	case "text":
		message, err = h.service.SendText(r.Context(), identity.ProfileID, req.RecipientID, req.Content)
	case "audio":
		message, err = h.service.SendAudio(r.Context(), identity.ProfileID, req.RecipientID, req.AudioClipID)
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "type must be text or audio")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, messagesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid message payload")
		case errors.Is(err, messagesvc.ErrClipNotFound):
			writeNotFound(w, "CLIP_NOT_FOUND", "audio clip does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to send message")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, message)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	messageID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "message id must be a uuid")
		return
	}

	var req dto.EditMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	affected, err := h.service.Edit(r.Context(), messageID, identity.ProfileID, req.Content)
	if err != nil {
		if errors.Is(err, messagesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid edit payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to edit message")
		return
	}
	if !affected {
		writeConflict(w, "EDIT_REJECTED", "edit window expired or message is not yours")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AffectedResponse{Affected: true})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	messageID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "message id must be a uuid")
		return
	}

	affected, err := h.service.Delete(r.Context(), messageID, identity.ProfileID)
	if err != nil {
		if errors.Is(err, messagesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid delete payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to delete message")
		return
	}
	if !affected {
		writeNotFound(w, "MESSAGE_NOT_FOUND", "message does not exist or is not yours")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AffectedResponse{Affected: true})
}

func (h *MessageHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	count, err := h.service.MarkDelivered(r.Context(), identity.ProfileID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to mark messages delivered")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AffectedCountResponse{Affected: count})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	var req dto.MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.SenderID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "sender_id is required")
		return
	}

	count, err := h.service.MarkRead(r.Context(), identity.ProfileID, req.SenderID)
	if err != nil {
		if errors.Is(err, messagesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid read payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to mark messages read")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AffectedCountResponse{Affected: count})
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	otherID, ok := pathInt64(r, "profileID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "profile id must be a positive integer")
		return
	}
	pageSize, ok := queryInt(r, "page_size", 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "page_size must be a non-negative integer")
		return
	}

	var before time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("before")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "before must be an RFC3339 timestamp")
			return
		}
		before = parsed
	}

	page, err := h.service.ListThread(r.Context(), identity.ProfileID, otherID, pageSize, before)
	if err != nil {
		if errors.Is(err, messagesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid thread request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load thread")
		return
	}

	httperrors.Write(w, http.StatusOK, page)
}

func (h *MessageHandler) UploadClip(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxClipUploadSize)
	if err := r.ParseMultipartForm(maxClipUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	durationSec, err := strconv.Atoi(strings.TrimSpace(r.FormValue("duration_sec")))
	if err != nil || durationSec <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "duration_sec must be a positive integer")
		return
	}

	contentType := header.Header.Get("Content-Type")
	clip, err := h.service.UploadClip(r.Context(), identity.ProfileID, file, header.Size, contentType, durationSec)
	if err != nil {
		if errors.Is(err, messagesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid clip upload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to upload clip")
		return
	}

	httperrors.Write(w, http.StatusCreated, clip)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, false
	}
	value, err := uuid.Parse(raw)
	if err != nil || value == uuid.Nil {
		return uuid.Nil, false
	}
	return value, true
}
