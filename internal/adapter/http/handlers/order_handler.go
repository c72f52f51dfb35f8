package handlers

import (
	"errors"
	"log"
	"net/http"
	request "sorbo_shop/internal/adapter/http/dto/request"
	response "sorbo_shop/internal/adapter/http/dto/response"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
	"sorbo_shop/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidOrderPayload = pkg.NewDomainErrorSimple("INVALID_ORDER_INPUT", "Invalid order payload", http.StatusBadRequest)

// OrderHandler handles HTTP requests for orders, including the checkout
// landing pages and the operator payment-status check.
type OrderHandler struct {
	orders    usecase.IOrderUseCase
	reconcile usecase.IReconcileUseCase
}

func NewOrderHandler(orders usecase.IOrderUseCase, reconcile usecase.IReconcileUseCase) *OrderHandler {
	return &OrderHandler{orders: orders, reconcile: reconcile}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload request.OrderCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
		return
	}

	created, err := h.orders.CreateOrder(c.Request.Context(), payload.ToInput())
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromCreatedOrder(created))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, product, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromOrder(order, product))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	resp := make([]response.OrderStatusResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, response.FromOrderStatus(o))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	order, _, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromOrderStatus(order))
}

// UpdateOrderStatus applies an operator-requested status change. Illegal
// transitions are rejected with a message naming the current status and the
// targets it may move to.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var payload request.StatusUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
		return
	}

	update, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), payload.ResolveStatus())
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromStatusUpdate(update))
}

// CheckPaymentStatus polls the payment provider for the order's latest
// payment state and reconciles the order against it.
func (h *OrderHandler) CheckPaymentStatus(c *gin.Context) {
	result, event, err := h.reconcile.CheckPaymentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPaymentCheck(result, event))
}

// CheckoutSuccess is the page the provider redirects the buyer to after an
// approved payment. The redirect query carries the session and order
// references (session_id or preference_id, depending on who built the URL),
// which are used to reconcile immediately instead of waiting for the webhook.
func (h *OrderHandler) CheckoutSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = c.Query("preference_id")
	}
	orderID := c.Query("external_reference")

	var (
		result usecase.ReconcileResult
		err    error
	)
	switch {
	case sessionID != "":
		result, err = h.reconcile.CheckBySessionID(c.Request.Context(), sessionID)
	case orderID != "":
		result, _, err = h.reconcile.CheckPaymentStatus(c.Request.Context(), orderID)
	default:
		c.JSON(http.StatusBadRequest, pkg.NewDomainErrorSimple("MISSING_REFERENCE", "Missing order reference", http.StatusBadRequest).ToHTTPError())
		return
	}
	if err != nil {
		// The buyer already paid; a reconcile hiccup here is recovered by the
		// webhook, so the page still acknowledges the return.
		log.Printf("[checkout][handler] success page reconcile failed session_id=%s order_id=%s err=%v", sessionID, orderID, err)
		c.JSON(http.StatusOK, gin.H{"message": "Payment received, your order is being confirmed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Thank you for your purchase!",
		"order_id": result.Order.ID,
		"status":   string(result.Order.Status),
	})
}

// CheckoutCancel is the page the provider redirects the buyer to when the
// checkout is abandoned. The order stays pending until the provider reports a
// terminal state.
func (h *OrderHandler) CheckoutCancel(c *gin.Context) {
	orderID := c.Query("external_reference")
	c.JSON(http.StatusOK, gin.H{
		"message":  "Checkout canceled, no charge was made",
		"order_id": orderID,
	})
}

func mapOrderError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidOrderID), errors.Is(err, usecase.ErrInvalidOrderInput):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrAmountBelowMinimum):
		return pkg.NewDomainErrorSimple("AMOUNT_BELOW_MINIMUM", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrProductOutOfStock):
		return pkg.NewDomainErrorSimple("PRODUCT_OUT_OF_STOCK", "Product is out of stock", http.StatusConflict)
	case errors.Is(err, usecase.ErrProductNotFound):
		return pkg.NewDomainErrorSimple("PRODUCT_NOT_FOUND", "Product not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrInvalidStatus):
		return pkg.NewDomainErrorSimple("INVALID_STATUS", err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrTerminalStatus), errors.Is(err, entities.ErrIllegalTransition):
		return pkg.NewDomainErrorSimple("ILLEGAL_TRANSITION", err.Error(), http.StatusConflict)
	case errors.Is(err, usecase.ErrStatusConflict):
		return pkg.NewDomainErrorSimple("STATUS_CONFLICT", "Order status changed concurrently, retry", http.StatusConflict)
	case errors.Is(err, usecase.ErrNoCheckoutSession):
		return pkg.NewDomainErrorSimple("NO_CHECKOUT_SESSION", "Order has no checkout session", http.StatusConflict)
	case errors.Is(err, usecase.ErrCheckoutSessionFailed), errors.Is(err, usecase.ErrProviderUnavailable):
		return pkg.NewDomainError("PAYMENT_PROVIDER_ERROR", "Payment provider unavailable", err, http.StatusBadGateway)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
