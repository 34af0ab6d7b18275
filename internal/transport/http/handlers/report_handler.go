package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	reportsvc "github.com/okabanov/matcha/backend/internal/services/reports"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

type ReportHandler struct {
	service *reportsvc.Service
}

func NewReportHandler(service *reportsvc.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	var req dto.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.ReportedProfileID <= 0 || strings.TrimSpace(req.Reason) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "reported_profile_id and reason are required")
		return
	}

	report, err := h.service.Create(r.Context(), identity.ProfileID, req.ReportedProfileID, req.Reason)
	if err != nil {
		if errors.Is(err, reportsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid report payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to create report")
		return
	}

	httperrors.Write(w, http.StatusCreated, report)
}
