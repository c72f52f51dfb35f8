package response

import (
	"testing"
	"time"

	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
)

func TestFromOrder(t *testing.T) {
	now := time.Now().UTC()
	o := entities.Order{
		ID:                "order-1",
		ProductID:         "prod-1",
		ClientName:        "Ana",
		ClientEmail:       "ana@example.com",
		ClientAddress:     "Av. Siempreviva 742",
		ProviderSessionID: "sess-1",
		Status:            entities.OrderStatusSuccess,
		Total:             150,
		Currency:          "ARS",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p := entities.Product{ID: "prod-1", Name: "Mate", Price: 150, Currency: "ARS", Stock: 2}

	res := FromOrder(o, p)
	if res.ID != "order-1" || res.Status != "success" || res.Total != 150 {
		t.Fatalf("unexpected mapped fields: %+v", res)
	}
	if res.Product.ID != "prod-1" || res.Product.Name != "Mate" || res.Product.Stock != 2 {
		t.Fatalf("unexpected product summary: %+v", res.Product)
	}
	if res.ProviderSessionID != "sess-1" {
		t.Fatalf("session id not mapped: %+v", res)
	}
	if !res.CreatedAt.Equal(now) || !res.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected dates: %+v", res)
	}
}

func TestFromCreatedOrder(t *testing.T) {
	c := usecase.CreatedOrder{
		Order:       entities.Order{ID: "order-1", ProviderSessionID: "sess-1"},
		CheckoutURL: "https://mp.example/checkout",
	}

	res := FromCreatedOrder(c)
	if res.OrderID != "order-1" || res.SessionID != "sess-1" || res.CheckoutURL != "https://mp.example/checkout" {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestFromPaymentCheck(t *testing.T) {
	res := FromPaymentCheck(
		usecase.ReconcileResult{
			Order:   entities.Order{ID: "order-1", Status: entities.OrderStatusSuccess},
			Applied: true,
			Message: "payment confirmed",
		},
		entities.ProviderEvent{Outcome: entities.OutcomePaid, ProviderStatus: "approved", StatusDetail: "accredited"},
	)

	if res.OrderID != "order-1" || res.OrderStatus != "success" || !res.Applied {
		t.Fatalf("unexpected response: %+v", res)
	}
	if res.ProviderStatus != "approved" || res.StatusDetail != "accredited" || res.Outcome != "paid" {
		t.Fatalf("unexpected provider fields: %+v", res)
	}
}
