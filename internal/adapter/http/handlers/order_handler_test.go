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

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func orderHandlerDeps(t *testing.T) (*gomock.Controller, *mocks.MockIOrderUseCase, *mocks.MockIReconcileUseCase, *OrderHandler) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockIOrderUseCase(ctrl)
	reconcile := mocks.NewMockIReconcileUseCase(ctrl)
	return ctrl, orders, reconcile, NewOrderHandler(orders, reconcile)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl, _, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed email rejected by binding", func(t *testing.T) {
		ctrl, _, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(`{"product_id":"prod-1","client_name":"Ana","client_email":"nope","client_address":"Calle 1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("success returns checkout url", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		orders.EXPECT().CreateOrder(gomock.Any(), gomock.AssignableToTypeOf(usecase.CreateOrderInput{})).Return(usecase.CreatedOrder{
			Order:       entities.Order{ID: "order-1", ProviderSessionID: "sess-1", Status: entities.OrderStatusPending},
			CheckoutURL: "https://mp.example/checkout",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(`{"product_id":"prod-1","client_name":"Ana","client_email":"ana@example.com","client_address":"Calle 1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_id"] != "order-1" || body["checkout_url"] != "https://mp.example/checkout" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("out of stock", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(usecase.CreatedOrder{}, usecase.ErrProductOutOfStock)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(`{"product_id":"prod-1","client_name":"Ana","client_email":"ana@example.com","client_address":"Calle 1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("provider down", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(usecase.CreatedOrder{}, usecase.ErrCheckoutSessionFailed)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(`{"product_id":"prod-1","client_name":"Ana","client_email":"ana@example.com","client_address":"Calle 1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})
}

func TestOrderHandler_GetOrderStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctrl, orders, _, h := orderHandlerDeps(t)
	defer ctrl.Finish()

	r := gin.New()
	r.GET("/v1/orders/:id/status", h.GetOrderStatus)

	orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess}, entities.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/order-1/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "success" {
		t.Fatalf("unexpected response body: %s", w.Body.String())
	}
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("applies transition", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.PATCH("/v1/orders/:id/update_status", h.UpdateOrderStatus)

		orders.EXPECT().UpdateStatus(gomock.Any(), "order-1", entities.OrderStatusSent).Return(usecase.StatusUpdate{
			OrderID:   "order-1",
			OldStatus: entities.OrderStatusSuccess,
			NewStatus: entities.OrderStatusSent,
		}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/v1/orders/order-1/update_status", bytes.NewBufferString(`{"status":"Sent"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["old_status"] != "success" || body["new_status"] != "sent" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("illegal transition carries the state machine message", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.PATCH("/v1/orders/:id/update_status", h.UpdateOrderStatus)

		_, _, terr := entities.Transition(entities.OrderStatusPending, entities.OrderStatusDelivered)
		orders.EXPECT().UpdateStatus(gomock.Any(), "order-1", entities.OrderStatusDelivered).Return(usecase.StatusUpdate{}, terr)

		req := httptest.NewRequest(http.MethodPatch, "/v1/orders/order-1/update_status", bytes.NewBufferString(`{"status":"delivered"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("legal targets")) {
			t.Fatalf("expected message naming legal targets, got %s", w.Body.String())
		}
	})

	t.Run("concurrent write conflict", func(t *testing.T) {
		ctrl, orders, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.PATCH("/v1/orders/:id/update_status", h.UpdateOrderStatus)

		orders.EXPECT().UpdateStatus(gomock.Any(), "order-1", entities.OrderStatusCancelled).Return(usecase.StatusUpdate{}, usecase.ErrStatusConflict)

		req := httptest.NewRequest(http.MethodPatch, "/v1/orders/order-1/update_status", bytes.NewBufferString(`{"status":"cancelled"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}

func TestOrderHandler_CheckPaymentStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("reports provider state and reconcile result", func(t *testing.T) {
		ctrl, _, reconcile, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders/:id/check_payment_status", h.CheckPaymentStatus)

		reconcile.EXPECT().CheckPaymentStatus(gomock.Any(), "order-1").Return(
			usecase.ReconcileResult{Order: entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess}, Applied: true},
			entities.ProviderEvent{Outcome: entities.OutcomePaid, ProviderStatus: "approved"},
			nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/order-1/check_payment_status", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_status"] != "success" || body["provider_status"] != "approved" || body["applied"] != true {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("provider unavailable maps to 502", func(t *testing.T) {
		ctrl, _, reconcile, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.POST("/v1/orders/:id/check_payment_status", h.CheckPaymentStatus)

		reconcile.EXPECT().CheckPaymentStatus(gomock.Any(), "order-1").Return(usecase.ReconcileResult{}, entities.ProviderEvent{}, usecase.ErrProviderUnavailable)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/order-1/check_payment_status", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})
}

func TestOrderHandler_CheckoutPages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success page reconciles by preference id", func(t *testing.T) {
		ctrl, _, reconcile, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.GET("/v1/checkout/success", h.CheckoutSuccess)

		reconcile.EXPECT().CheckBySessionID(gomock.Any(), "sess-1").Return(
			usecase.ReconcileResult{Order: entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess}, Applied: true}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/checkout/success?preference_id=sess-1&external_reference=order-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_id"] != "order-1" || body["status"] != "success" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("success page reconciles by session id", func(t *testing.T) {
		ctrl, _, reconcile, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.GET("/v1/checkout/success", h.CheckoutSuccess)

		// The mock gateway builds its redirect URL with session_id, so the
		// alias has to reach the session lookup the same way preference_id does.
		reconcile.EXPECT().CheckBySessionID(gomock.Any(), "mock-pref-42").Return(
			usecase.ReconcileResult{Order: entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess}, Applied: true}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/checkout/success?session_id=mock-pref-42", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_id"] != "order-1" || body["status"] != "success" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("success page still responds when reconcile fails", func(t *testing.T) {
		ctrl, _, reconcile, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.GET("/v1/checkout/success", h.CheckoutSuccess)

		reconcile.EXPECT().CheckBySessionID(gomock.Any(), "sess-1").Return(usecase.ReconcileResult{}, usecase.ErrProviderUnavailable)

		req := httptest.NewRequest(http.MethodGet, "/v1/checkout/success?preference_id=sess-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("success page without references", func(t *testing.T) {
		ctrl, _, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.GET("/v1/checkout/success", h.CheckoutSuccess)

		req := httptest.NewRequest(http.MethodGet, "/v1/checkout/success", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("cancel page acknowledges without mutation", func(t *testing.T) {
		ctrl, _, _, h := orderHandlerDeps(t)
		defer ctrl.Finish()

		r := gin.New()
		r.GET("/v1/checkout/cancel", h.CheckoutCancel)

		req := httptest.NewRequest(http.MethodGet, "/v1/checkout/cancel?external_reference=order-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}

func TestMapOrderError(t *testing.T) {
	if got := mapOrderError(usecase.ErrInvalidOrderID); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapOrderError(usecase.ErrAmountBelowMinimum); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapOrderError(usecase.ErrProductOutOfStock); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapOrderError(usecase.ErrOrderNotFound); got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if got := mapOrderError(usecase.ErrStatusConflict); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapOrderError(usecase.ErrProviderUnavailable); got.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("expected 502")
	}
	if got := mapOrderError(errors.New("x")); got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
}
