package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
	"sorbo_shop/internal/usecase/interfaces"
	"sorbo_shop/pkg"
	"sorbo_shop/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// ISignatureVerifier validates the provider's x-signature header for a
// notification before any provider lookups happen.
type ISignatureVerifier interface {
	Verify(dataID, requestID, signatureHeader string) error
}

// WebhookHandler receives Mercado Pago notifications, verifies their
// signature and reconciles the referenced order.
//
// Once a notification is structurally valid and authentic it is always
// acknowledged with 2xx, even when it references an order this service does
// not know, so the provider stops retrying it. Provider lookup failures are
// the one exception: those return 5xx so the notification is redelivered.
type WebhookHandler struct {
	verifier  ISignatureVerifier
	gateway   interfaces.ICheckoutGateway
	reconcile usecase.IReconcileUseCase
}

func NewWebhookHandler(verifier ISignatureVerifier, gateway interfaces.ICheckoutGateway, reconcile usecase.IReconcileUseCase) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, gateway: gateway, reconcile: reconcile}
}

type webhookNotification struct {
	Type   string
	DataID string
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (h *WebhookHandler) HandleNotification(c *gin.Context) {
	notification, err := parseNotification(c)
	if err != nil {
		log.Printf("[webhook][handler] malformed notification err=%v", err)
		c.JSON(http.StatusBadRequest, pkg.NewDomainErrorSimple("MALFORMED_NOTIFICATION", "Malformed notification", http.StatusBadRequest).ToHTTPError())
		return
	}

	if err := h.verifier.Verify(notification.DataID, c.GetHeader("x-request-id"), c.GetHeader("x-signature")); err != nil {
		log.Printf("[webhook][handler] signature rejected type=%s data_id=%s err=%v", notification.Type, notification.DataID, err)
		metrics.IncWebhookEvent(notification.Type, "rejected")
		c.JSON(http.StatusBadRequest, pkg.NewDomainErrorSimple("INVALID_SIGNATURE", "Invalid signature", http.StatusBadRequest).ToHTTPError())
		return
	}

	var event entities.ProviderEvent
	switch notification.Type {
	case "payment":
		event, err = h.gateway.ResolvePaymentNotification(c.Request.Context(), notification.DataID)
	case "merchant_order", "topic_merchant_order_wh":
		event, err = h.gateway.ResolveMerchantOrderNotification(c.Request.Context(), notification.DataID)
	default:
		metrics.IncWebhookEvent(notification.Type, "ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		log.Printf("[webhook][handler] provider lookup failed type=%s data_id=%s err=%v", notification.Type, notification.DataID, err)
		metrics.IncWebhookEvent(notification.Type, "provider_error")
		c.JSON(http.StatusBadGateway, pkg.NewDomainError("PAYMENT_PROVIDER_ERROR", "Payment provider unavailable", err, http.StatusBadGateway).ToHTTPError())
		return
	}

	result, err := h.reconcile.ReconcileEvent(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			log.Printf("[webhook][handler] no order for notification type=%s session_id=%s order_id=%s", notification.Type, event.SessionID, event.OrderID)
			metrics.IncWebhookEvent(notification.Type, "unmatched")
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "order not found"})
			return
		}
		// Storage failure: answer 5xx so the provider redelivers. Reconciliation
		// is idempotent, so the retry is safe.
		log.Printf("[webhook][handler] reconcile failed type=%s order_id=%s err=%v", notification.Type, event.OrderID, err)
		metrics.IncWebhookEvent(notification.Type, "error")
		c.JSON(http.StatusInternalServerError, pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError).ToHTTPError())
		return
	}

	metrics.IncWebhookEvent(notification.Type, "processed")
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"order_id":     result.Order.ID,
		"order_status": string(result.Order.Status),
		"applied":      result.Applied,
	})
}

// parseNotification extracts the notification type and data id. Mercado Pago
// sends both as query parameters and repeats them in the JSON body; the query
// form wins because the signed manifest is built from it.
func parseNotification(c *gin.Context) (webhookNotification, error) {
	n := webhookNotification{
		Type:   c.Query("type"),
		DataID: c.Query("data.id"),
	}
	if n.Type == "" {
		n.Type = c.Query("topic")
	}
	if n.DataID == "" {
		n.DataID = c.Query("id")
	}

	if n.Type == "" || n.DataID == "" {
		var body webhookBody
		if err := c.ShouldBindJSON(&body); err == nil {
			if n.Type == "" {
				n.Type = body.Type
			}
			if n.DataID == "" {
				n.DataID = body.Data.ID.String()
			}
		}
	}

	if n.Type == "" || n.DataID == "" {
		return webhookNotification{}, fmt.Errorf("notification missing type or data id")
	}
	return n, nil
}
