package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	reviewsvc "github.com/okabanov/matcha/backend/internal/services/reviews"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

type ReviewHandler struct {
	service *reviewsvc.Service
}

func NewReviewHandler(service *reviewsvc.Service) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	var req dto.SubmitReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Attribute) == "" || strings.TrimSpace(req.ProposedValue) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "attribute and proposed_value are required")
		return
	}

	review, err := h.service.Submit(r.Context(), identity.ProfileID, req.Attribute, req.ProposedValue)
	if err != nil {
		if errors.Is(err, reviewsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid review submission")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to submit review")
		return
	}

	httperrors.Write(w, http.StatusCreated, review)
}

func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	reviewID, ok := pathInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "review id must be a positive integer")
		return
	}

	var req dto.DecideReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.Decide(r.Context(), reviewID, req.Status, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, reviewsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid review decision")
		case errors.Is(err, reviewsvc.ErrUnsupportedState):
			writeBadRequest(w, "VALIDATION_ERROR", "status must be approved or rejected")
		case errors.Is(err, pgrepo.ErrReviewNotFound):
			writeNotFound(w, "REVIEW_NOT_FOUND", "review does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to decide review")
		}
		return
	}

	if !result.Affected {
		writeConflict(w, "REVIEW_ALREADY_RESOLVED", "review is already terminal")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DecideReviewResponse{Affected: true})
}

func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}

	history, err := h.service.History(r.Context(), identity.ProfileID, limit)
	if err != nil {
		if errors.Is(err, reviewsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid history request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load review history")
		return
	}

	httperrors.Write(w, http.StatusOK, history)
}
