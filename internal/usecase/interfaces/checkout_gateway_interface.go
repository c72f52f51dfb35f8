package interfaces

import (
	"context"
	"sorbo_shop/internal/domain/entities"
)

// ICheckoutGateway abstracts the external checkout provider (Mercado Pago).
//
// CreateCheckoutSession opens a hosted payment session for an order and
// returns the session id plus the URL the client is redirected to.
//
// QueryPaymentStatus asks the provider for the live outcome of an order's
// session (manual poll and success-page paths). ResolvePaymentNotification and
// ResolveMerchantOrderNotification fetch the object referenced by an inbound
// webhook notification and normalize it. All three never mutate local state;
// callers feed the returned ProviderEvent into the reconciliation engine.
type ICheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, o entities.Order, p entities.Product) (entities.CheckoutSession, error)
	QueryPaymentStatus(ctx context.Context, o entities.Order) (entities.ProviderEvent, error)
	ResolvePaymentNotification(ctx context.Context, paymentID string) (entities.ProviderEvent, error)
	ResolveMerchantOrderNotification(ctx context.Context, merchantOrderID string) (entities.ProviderEvent, error)
}
