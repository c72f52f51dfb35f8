package entities

import "encoding/json"

// PaymentOutcome is the normalized result of an externally observed payment
// event. Every trigger path (webhook, manual poll, success-page view) reduces
// the provider's vocabulary to this enumeration before reconciliation.
type PaymentOutcome string

const (
	OutcomePaid         PaymentOutcome = "paid"
	OutcomeExpired      PaymentOutcome = "expired"
	OutcomeFailed       PaymentOutcome = "failed"
	OutcomeCanceled     PaymentOutcome = "canceled"
	OutcomeStillPending PaymentOutcome = "still_pending"
)

// CheckoutSession is the hosted payment session created for an order.
//
// Provider payload:
//   - Raw keeps the original response (JSON) for traceability/audit.
type CheckoutSession struct {
	SessionID   string          `json:"session_id"`
	CheckoutURL string          `json:"checkout_url"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// ProviderEvent is a provider notification or poll result normalized by the
// checkout gateway.
//
// Correlation keys:
//   - SessionID is the primary key (provider_session_id on the order).
//   - OrderID comes from the provider's external reference / metadata and is
//     the fallback when the session id lookup misses.
type ProviderEvent struct {
	SessionID      string          `json:"session_id,omitempty"`
	OrderID        string          `json:"order_id,omitempty"`
	Outcome        PaymentOutcome  `json:"outcome"`
	ProviderStatus string          `json:"provider_status,omitempty"`
	StatusDetail   string          `json:"status_detail,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}
