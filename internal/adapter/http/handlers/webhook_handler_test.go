package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sorbo_shop/internal/adapter/http/handlers/mocks"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
	mock_interfaces "sorbo_shop/internal/usecase/interfaces/mocks"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

type stubVerifier struct {
	err error
}

func (s stubVerifier) Verify(dataID, requestID, signatureHeader string) error { return s.err }

func webhookDeps(t *testing.T, verifier ISignatureVerifier) (*gomock.Controller, *mock_interfaces.MockICheckoutGateway, *mocks.MockIReconcileUseCase, *gin.Engine) {
	ctrl := gomock.NewController(t)
	gateway := mock_interfaces.NewMockICheckoutGateway(ctrl)
	reconcile := mocks.NewMockIReconcileUseCase(ctrl)
	h := NewWebhookHandler(verifier, gateway, reconcile)

	r := gin.New()
	r.POST("/v1/payments/webhook", h.HandleNotification)
	return ctrl, gateway, reconcile, r
}

func TestWebhookHandler_HandleNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("payment notification reconciles the order", func(t *testing.T) {
		ctrl, gateway, reconcile, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		event := entities.ProviderEvent{SessionID: "sess-1", OrderID: "order-1", Outcome: entities.OutcomePaid, ProviderStatus: "approved"}
		gateway.EXPECT().ResolvePaymentNotification(gomock.Any(), "12345").Return(event, nil)
		reconcile.EXPECT().ReconcileEvent(gomock.Any(), event).Return(usecase.ReconcileResult{
			Order:   entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess},
			Applied: true,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=payment&data.id=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_id"] != "order-1" || body["applied"] != true {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("merchant order notification uses the merchant order resolver", func(t *testing.T) {
		ctrl, gateway, reconcile, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		event := entities.ProviderEvent{SessionID: "sess-1", Outcome: entities.OutcomeExpired}
		gateway.EXPECT().ResolveMerchantOrderNotification(gomock.Any(), "777").Return(event, nil)
		reconcile.EXPECT().ReconcileEvent(gomock.Any(), event).Return(usecase.ReconcileResult{
			Order:   entities.Order{ID: "order-1", Status: entities.OrderStatusFailed},
			Applied: true,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?topic=merchant_order&id=777", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("falls back to the json body for type and id", func(t *testing.T) {
		ctrl, gateway, reconcile, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		event := entities.ProviderEvent{SessionID: "sess-1", Outcome: entities.OutcomePaid}
		gateway.EXPECT().ResolvePaymentNotification(gomock.Any(), "12345").Return(event, nil)
		reconcile.EXPECT().ReconcileEvent(gomock.Any(), event).Return(usecase.ReconcileResult{Order: entities.Order{ID: "order-1"}}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewBufferString(`{"type":"payment","data":{"id":12345}}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("invalid signature is rejected before any provider call", func(t *testing.T) {
		ctrl, _, _, r := webhookDeps(t, stubVerifier{err: errors.New("bad signature")})
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=payment&data.id=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown order is acknowledged so the provider stops retrying", func(t *testing.T) {
		ctrl, gateway, reconcile, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		event := entities.ProviderEvent{SessionID: "sess-x", Outcome: entities.OutcomePaid}
		gateway.EXPECT().ResolvePaymentNotification(gomock.Any(), "12345").Return(event, nil)
		reconcile.EXPECT().ReconcileEvent(gomock.Any(), event).Return(usecase.ReconcileResult{}, usecase.ErrOrderNotFound)

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=payment&data.id=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["status"] != "ignored" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("provider lookup failure asks for redelivery", func(t *testing.T) {
		ctrl, gateway, _, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		gateway.EXPECT().ResolvePaymentNotification(gomock.Any(), "12345").Return(entities.ProviderEvent{}, errors.New("timeout"))

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=payment&data.id=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})

	t.Run("reconcile storage failure asks for redelivery", func(t *testing.T) {
		ctrl, gateway, reconcile, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		event := entities.ProviderEvent{SessionID: "sess-1", Outcome: entities.OutcomePaid}
		gateway.EXPECT().ResolvePaymentNotification(gomock.Any(), "12345").Return(event, nil)
		reconcile.EXPECT().ReconcileEvent(gomock.Any(), event).Return(usecase.ReconcileResult{}, errors.New("dynamo down"))

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=payment&data.id=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})

	t.Run("unrelated notification types are acknowledged and skipped", func(t *testing.T) {
		ctrl, _, _, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook?type=plan&data.id=9", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("missing type or id", func(t *testing.T) {
		ctrl, _, _, r := webhookDeps(t, stubVerifier{})
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}
