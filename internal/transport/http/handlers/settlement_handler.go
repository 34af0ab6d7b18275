package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
	"github.com/okabanov/matcha/backend/internal/transport/http/dto"
	httperrors "github.com/okabanov/matcha/backend/internal/transport/http/errors"
)

const maxWebhookBodySize = 1 << 20 // 1 MiB

type SettlementHandler struct {
	service *settlementsvc.Service
	signer  *settlementsvc.Signer
}

func NewSettlementHandler(service *settlementsvc.Service, signer *settlementsvc.Signer) *SettlementHandler {
	return &SettlementHandler{
		service: service,
		signer:  signer,
	}
}

// Webhook receives settlement updates from the external pipeline. The body
// signature must verify before anything in the payload is trusted.
func (h *SettlementHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.signer == nil {
		writeInternal(w, "SETTLEMENT_SERVICE_UNAVAILABLE", "settlement service is unavailable")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unreadable request body")
		return
	}

	if !h.signer.Verify(body, r.Header.Get("X-Webhook-Signature")) {
		writeUnauthorized(w, "BAD_SIGNATURE", "webhook signature verification failed")
		return
	}

	var req dto.SettlementWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid webhook payload")
		return
	}

	result, err := h.service.Apply(r.Context(), model.OnchainSettlement{
		TxID:            req.Data.TxID,
		SwipeID:         req.Data.SwipeID,
		CounterSwipeID:  req.Data.CounterSwipeID,
		Amount:          req.Data.Amount,
		Fee:             req.Data.Fee,
		Status:          enums.SettlementStatus(req.Data.Status),
		SenderWallet:    req.Data.SenderWallet,
		RecipientWallet: req.Data.RecipientWallet,
	})
	if err != nil {
		if errors.Is(err, settlementsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid settlement payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to apply settlement")
		return
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK             bool    `json:"ok"`
		RefundedSwipes []int64 `json:"refunded_swipes,omitempty"`
	}{
		OK:             true,
		RefundedSwipes: result.RefundedSwipes,
	})
}

func (h *SettlementHandler) GetByTxID(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SETTLEMENT_SERVICE_UNAVAILABLE", "settlement service is unavailable")
		return
	}

	txID := r.URL.Query().Get("tx_id")
	settlement, err := h.service.GetByTxID(r.Context(), txID)
	if err != nil {
		switch {
		case errors.Is(err, settlementsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "tx_id is required")
		case errors.Is(err, pgrepo.ErrSettlementNotFound):
			writeNotFound(w, "SETTLEMENT_NOT_FOUND", "settlement does not exist")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load settlement")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, settlement)
}
