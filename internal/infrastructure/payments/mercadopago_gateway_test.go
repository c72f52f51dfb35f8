package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	appconfig "sorbo_shop/internal/config"
	"sorbo_shop/internal/domain/entities"
)

func TestOutcomeFromPaymentStatus(t *testing.T) {
	cases := []struct {
		status, detail string
		want           entities.PaymentOutcome
	}{
		{"approved", "accredited", entities.OutcomePaid},
		{"rejected", "cc_rejected_insufficient_amount", entities.OutcomeFailed},
		{"cancelled", "by_collector", entities.OutcomeCanceled},
		{"cancelled", "expired", entities.OutcomeExpired},
		{"refunded", "", entities.OutcomeCanceled},
		{"charged_back", "", entities.OutcomeCanceled},
		{"pending", "pending_waiting_payment", entities.OutcomeStillPending},
		{"in_process", "", entities.OutcomeStillPending},
		{"in_mediation", "", entities.OutcomeStillPending},
		{"authorized", "", entities.OutcomeStillPending},
		{"some_future_status", "", entities.OutcomeStillPending},
	}
	for _, tc := range cases {
		if got := outcomeFromPaymentStatus(tc.status, tc.detail); got != tc.want {
			t.Fatalf("%s/%s: expected %s, got %s", tc.status, tc.detail, tc.want, got)
		}
	}
}

func TestOutcomeFromMerchantOrderStatus(t *testing.T) {
	cases := []struct {
		status string
		want   entities.PaymentOutcome
	}{
		{"paid", entities.OutcomePaid},
		{"expired", entities.OutcomeExpired},
		{"reverted", entities.OutcomeCanceled},
		{"partially_reverted", entities.OutcomeCanceled},
		{"payment_required", entities.OutcomeStillPending},
		{"payment_in_process", entities.OutcomeStillPending},
		{"undefined", entities.OutcomeStillPending},
		{"something_new", entities.OutcomeStillPending},
	}
	for _, tc := range cases {
		if got := outcomeFromMerchantOrderStatus(tc.status); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestNewMercadoPagoGateway(t *testing.T) {
	t.Run("requires an access token", func(t *testing.T) {
		_, err := NewMercadoPagoGateway(appconfig.Config{ProviderTimeout: time.Second})
		if !errors.Is(err, ErrMissingAccessToken) {
			t.Fatalf("expected ErrMissingAccessToken, got %v", err)
		}
	})

	t.Run("mock mode needs no credentials", func(t *testing.T) {
		g, err := NewMercadoPagoGateway(appconfig.Config{GatewayMockMode: true, PublicBaseURL: "http://localhost:8080", ProviderTimeout: time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		session, err := g.CreateCheckoutSession(context.Background(), entities.Order{ID: "order-1", Total: 100, Currency: "ARS"}, entities.Product{ID: "prod-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.SessionID == "" || session.CheckoutURL == "" {
			t.Fatalf("mock session incomplete: %+v", session)
		}

		ev, err := g.QueryPaymentStatus(context.Background(), entities.Order{ID: "order-1", ProviderSessionID: session.SessionID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Outcome != entities.OutcomePaid {
			t.Fatalf("mock query should approve, got %s", ev.Outcome)
		}
	})
}

func TestMetadataString(t *testing.T) {
	m := map[string]any{"order_id": "order-1", "count": 2, "none": nil}
	if got := metadataString(m, "order_id"); got != "order-1" {
		t.Fatalf("expected order-1, got %q", got)
	}
	if got := metadataString(m, "count"); got != "2" {
		t.Fatalf("expected 2, got %q", got)
	}
	if got := metadataString(m, "none"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := metadataString(m, "missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
