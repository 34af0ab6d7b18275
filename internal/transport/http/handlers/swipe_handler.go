package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	swipesvc "github.com/okabanov/matcha/backend/internal/services/swipes"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.Type) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and swipe_type are required")
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), identity.ProfileID, req.TargetID, req.Type, req.Cost)
	if err != nil {
		var tooFast swipesvc.TooFastError
		switch {
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		case errors.Is(err, swipesvc.ErrUnsupportedType):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported swipe type")
		case errors.Is(err, swipesvc.ErrInsufficientBalance):
			httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
				Code:    "INSUFFICIENT_BALANCE",
				Message: "wallet balance does not cover the swipe cost",
			})
		case errors.Is(err, swipesvc.ErrWalletNotFound):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "WALLET_NOT_FOUND",
				Message: "no wallet exists for this profile",
			})
		case errors.As(err, &tooFast):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many swipes, slow down",
				RetryAfterSec: tooFast.RetryAfterSec,
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record swipe")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		OK:           true,
		Swipe:        result.Swipe,
		MatchCreated: result.MatchCreated,
	})
}
