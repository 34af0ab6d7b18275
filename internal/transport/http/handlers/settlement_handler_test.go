package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
)

func newWebhookHandler(t *testing.T) (*SettlementHandler, *settlementsvc.Signer) {
	t.Helper()

	signer, err := settlementsvc.NewSigner("webhook-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return NewSettlementHandler(settlementsvc.NewService(settlementsvc.Dependencies{}), signer), signer
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	handler, _ := newWebhookHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/settlements/webhook", strings.NewReader(`{"event":"insert"}`))
	rec := httptest.NewRecorder()
	handler.Webhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	handler, signer := newWebhookHandler(t)

	signature := signer.Sign([]byte(`{"event":"insert"}`))
	req := httptest.NewRequest(http.MethodPost, "/settlements/webhook", strings.NewReader(`{"event":"update"}`))
	req.Header.Set("X-Webhook-Signature", signature)
	rec := httptest.NewRecorder()
	handler.Webhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWebhookRejectsInvalidPayloadAfterSignatureCheck(t *testing.T) {
	handler, signer := newWebhookHandler(t)

	body := `{"event":"insert","schema":"public","table":"settlements","data":{"tx_id":"","swipe_id":0,"status":"confirmed"}}`
	req := httptest.NewRequest(http.MethodPost, "/settlements/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signer.Sign([]byte(body)))
	rec := httptest.NewRecorder()
	handler.Webhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetByTxIDRequiresTxID(t *testing.T) {
	handler, _ := newWebhookHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/settlements", nil)
	rec := httptest.NewRecorder()
	handler.GetByTxID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}
