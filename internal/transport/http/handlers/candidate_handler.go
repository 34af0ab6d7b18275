package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	candidatesvc "github.com/okabanov/matcha/backend/internal/services/candidates"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

type CandidateHandler struct {
	service *candidatesvc.Service
}

func NewCandidateHandler(service *candidatesvc.Service) *CandidateHandler {
	return &CandidateHandler{service: service}
}

func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CANDIDATE_SERVICE_UNAVAILABLE", "candidate service is unavailable")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "offset must be a non-negative integer")
		return
	}

	mode := strings.TrimSpace(r.URL.Query().Get("mode"))

	var skipID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("skip_profile_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "skip_profile_id must be a positive integer")
			return
		}
		skipID = parsed
	}

	page, err := h.service.GetCandidates(r.Context(), identity.ProfileID, limit, offset, mode, skipID)
	if err != nil {
		switch {
		case errors.Is(err, candidatesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid pagination bounds")
		case errors.Is(err, candidatesvc.ErrUnsupportedMode):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported candidate mode")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load candidates")
		}
		return
	}

	if mode == "" {
		mode = candidatesvc.ModeBrowse
	}
	httperrors.Write(w, http.StatusOK, dto.CandidatesResponse{
		Candidates: page,
		Limit:      limit,
		Offset:     offset,
		Mode:       mode,
	})
}
