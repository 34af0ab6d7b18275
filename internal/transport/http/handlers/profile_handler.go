package handlers

import (
	"errors"
	"net/http"

	"github.com/okabanov/matcha/backend/internal/domain/model"
	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	profilesvc "github.com/okabanov/matcha/backend/internal/services/profiles"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profileID, ok := pathInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "profile id must be a positive integer")
		return
	}

	profile, err := h.service.Get(r.Context(), profileID)
	if err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid profile request")
		case errors.Is(err, profilesvc.ErrProfileNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, profile)
}

// Upsert is driven by the external signup event, so it writes the profile
// named in the payload rather than the caller's own.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpsertProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	err := h.service.Upsert(r.Context(), model.Profile{
		ID:               req.ProfileID,
		DisplayName:      req.DisplayName,
		Bio:              req.Bio,
		Gender:           req.Gender,
		GenderPreference: req.GenderPreference,
		Photos:           req.Photos,
		MatchingPrompt:   req.MatchingPrompt,
		WalletAddress:    req.WalletAddress,
		IsActive:         true,
	})
	if err != nil {
		if errors.Is(err, profilesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid profile payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to upsert profile")
		return
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (h *ProfileHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.SetActive(r.Context(), identity.ProfileID, req.Active); err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrProfileNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to update profile")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (h *ProfileHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}

	view, err := h.service.Wallet(r.Context(), identity.ProfileID, limit)
	if err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid wallet request")
		case errors.Is(err, profilesvc.ErrProfileNotFound):
			writeNotFound(w, "WALLET_NOT_FOUND", "wallet does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load wallet")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, view)
}
