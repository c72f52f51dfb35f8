package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the order lifecycle status.
//
// Transitions are monotonic along a fixed DAG; once a terminal status is
// reached the order never changes again. Every code path that mutates an
// order's status must go through Transition below.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSuccess   OrderStatus = "success"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusSent      OrderStatus = "sent"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrTerminalStatus    = errors.New("order is in a terminal status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// allowedTransitions is the single source of truth for the lifecycle DAG.
// Slices keep a stable order so error messages are deterministic.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusSuccess, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusSuccess:   {OrderStatusSent, OrderStatusShipped, OrderStatusDelivered},
	OrderStatusSent:      {OrderStatusShipped, OrderStatusDelivered},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusFailed:    {},
	OrderStatusCancelled: {},
	OrderStatusDelivered: {},
}

// IsValidStatus reports whether s is a member of the status enumeration.
func IsValidStatus(s OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted from s.
func (s OrderStatus) IsTerminal() bool {
	targets, ok := allowedTransitions[s]
	return ok && len(targets) == 0
}

// LegalTargets returns the statuses reachable from s in one transition.
func (s OrderStatus) LegalTargets() []OrderStatus {
	return allowedTransitions[s]
}

// CanTransition reports whether s -> to is an edge of the DAG.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition validates current -> requested against the lifecycle DAG.
//
// It is pure: on success it returns (old, new) for the caller to persist in a
// single atomic unit of work. Errors:
//   - ErrInvalidStatus when requested is not a member of the enumeration
//   - ErrTerminalStatus when current is terminal
//   - ErrIllegalTransition otherwise, naming current, requested and the legal targets
func Transition(current, requested OrderStatus) (old, next OrderStatus, err error) {
	if !IsValidStatus(requested) {
		return current, current, fmt.Errorf("%w: %q is not one of %s", ErrInvalidStatus, requested, formatTargets(statusEnumeration()))
	}
	if current.IsTerminal() {
		return current, current, fmt.Errorf("%w: %q does not allow further transitions", ErrTerminalStatus, current)
	}
	if !current.CanTransition(requested) {
		return current, current, fmt.Errorf("%w: cannot move from %q to %q, legal targets: %s",
			ErrIllegalTransition, current, requested, formatTargets(current.LegalTargets()))
	}
	return current, requested, nil
}

func statusEnumeration() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusSuccess, OrderStatusFailed, OrderStatusCancelled,
		OrderStatusSent, OrderStatusShipped, OrderStatusDelivered,
	}
}

func formatTargets(targets []OrderStatus) string {
	parts := make([]string, 0, len(targets))
	for _, t := range targets {
		parts = append(parts, string(t))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Order is a customer's request to purchase one unit of one product, tracked
// through the payment-and-fulfillment lifecycle.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (session_id-index): session_id
//
// ProviderSessionID correlates the order with the external checkout session;
// it is empty until the hosted session is created and unique afterwards.
// Total and Currency are snapshotted from the product at creation time and are
// never re-read from the catalog.
type Order struct {
	ID                string      `json:"id"`
	ProductID         string      `json:"product_id"`
	ClientName        string      `json:"client_name"`
	ClientEmail       string      `json:"client_email"`
	ClientPhone       string      `json:"client_phone"`
	ClientAddress     string      `json:"client_address"`
	ProviderSessionID string      `json:"provider_session_id"`
	Status            OrderStatus `json:"status"`
	Total             float64     `json:"total"`
	Currency          string      `json:"currency"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
