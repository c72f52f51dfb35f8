package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase/interfaces"
	"sorbo_shop/pkg/metrics"
	"strings"
)

var (
	ErrUnknownOutcome      = errors.New("unknown payment outcome")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrNoCheckoutSession   = errors.New("order has no checkout session")
)

// ReconcileResult reports what a reconciliation call did.
//
// Applied is true only when this call moved the order's status. Duplicate or
// late notifications, lost races and still-pending outcomes all come back as
// Applied=false with the order's current state, never as errors.
type ReconcileResult struct {
	Order        entities.Order
	Applied      bool
	OldStatus    entities.OrderStatus
	StockWarning bool
	Message      string
}

// IReconcileUseCase is the single funnel through which every trigger path
// (webhook, manual poll, success-page view) applies an externally observed
// payment outcome to local order state.
type IReconcileUseCase interface {
	Reconcile(ctx context.Context, orderID string, outcome entities.PaymentOutcome) (ReconcileResult, error)
	ReconcileEvent(ctx context.Context, ev entities.ProviderEvent) (ReconcileResult, error)
	CheckPaymentStatus(ctx context.Context, orderID string) (ReconcileResult, entities.ProviderEvent, error)
	CheckBySessionID(ctx context.Context, sessionID string) (ReconcileResult, error)
}

type ReconcileUseCase struct {
	orders   interfaces.IOrderRepository
	products interfaces.IProductRepository
	gateway  interfaces.ICheckoutGateway
}

var _ IReconcileUseCase = (*ReconcileUseCase)(nil)

func NewReconcileUseCase(orders interfaces.IOrderRepository, products interfaces.IProductRepository, gateway interfaces.ICheckoutGateway) *ReconcileUseCase {
	return &ReconcileUseCase{orders: orders, products: products, gateway: gateway}
}

// Reconcile fetches the order fresh and applies the observed outcome through
// the status state machine. Transition errors raised here (duplicate or late
// notifications, already-terminal orders) are swallowed into no-ops; only
// OrderNotFound and storage errors propagate.
func (u *ReconcileUseCase) Reconcile(ctx context.Context, orderID string, outcome entities.PaymentOutcome) (ReconcileResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ReconcileResult{}, ErrInvalidOrderID
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if order.ID == "" {
		return ReconcileResult{}, ErrOrderNotFound
	}

	switch outcome {
	case entities.OutcomePaid:
		return u.applyPaid(ctx, order)
	case entities.OutcomeExpired:
		return u.applyTerminal(ctx, order, entities.OrderStatusFailed, outcome)
	case entities.OutcomeFailed:
		return u.applyTerminal(ctx, order, entities.OrderStatusFailed, outcome)
	case entities.OutcomeCanceled:
		return u.applyTerminal(ctx, order, entities.OrderStatusCancelled, outcome)
	case entities.OutcomeStillPending:
		log.Printf("[reconcile][usecase] still pending order_id=%s status=%s", order.ID, order.Status)
		metrics.IncReconcile(string(outcome), metrics.ResultNoop)
		return ReconcileResult{Order: order, OldStatus: order.Status, Message: "payment still pending, order unchanged"}, nil
	default:
		metrics.IncReconcile(string(outcome), metrics.ResultError)
		return ReconcileResult{}, fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

// applyPaid enters the success state and consumes stock at most once.
//
// The guard order is load-bearing: check "already success" first, then let the
// compare-and-set on the status row decide races. Stock is decremented only by
// the single caller that actually won the transition.
func (u *ReconcileUseCase) applyPaid(ctx context.Context, order entities.Order) (ReconcileResult, error) {
	if order.Status == entities.OrderStatusSuccess {
		log.Printf("[reconcile][usecase] duplicate paid notification order_id=%s", order.ID)
		metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultSuppressed)
		return ReconcileResult{Order: order, OldStatus: order.Status, Message: "order already marked success"}, nil
	}

	old, next, err := entities.Transition(order.Status, entities.OrderStatusSuccess)
	if err != nil {
		// Late notification for an order that already moved on; not an error here.
		log.Printf("[reconcile][usecase] paid notification not applicable order_id=%s status=%s err=%v", order.ID, order.Status, err)
		metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultSuppressed)
		return ReconcileResult{Order: order, OldStatus: order.Status, Message: fmt.Sprintf("transition not applicable: %v", err)}, nil
	}

	updated, err := u.orders.UpdateStatus(ctx, order.ID, old, next)
	if err != nil {
		metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultError)
		return ReconcileResult{}, err
	}
	if updated.ID == "" {
		// Lost the compare-and-set race; the winner already applied success.
		fresh, err := u.orders.GetByID(ctx, order.ID)
		if err != nil {
			metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultError)
			return ReconcileResult{}, err
		}
		log.Printf("[reconcile][usecase] lost success race order_id=%s status=%s", order.ID, fresh.Status)
		metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultSuppressed)
		return ReconcileResult{Order: fresh, OldStatus: old, Message: "concurrent reconciliation already applied"}, nil
	}
	log.Printf("[reconcile][usecase] order marked success order_id=%s old=%s", order.ID, old)

	result := ReconcileResult{Order: updated, Applied: true, OldStatus: old, Message: "payment confirmed"}

	product, err := u.products.DecrementStock(ctx, order.ProductID, 1)
	switch {
	case err != nil:
		// The status transition stands; stock consumption is reported, not rolled back.
		log.Printf("[reconcile][usecase] stock decrement error order_id=%s product_id=%s err=%v", order.ID, order.ProductID, err)
		result.StockWarning = true
	case product.ID == "":
		log.Printf("[reconcile][usecase] no stock left order_id=%s product_id=%s", order.ID, order.ProductID)
		metrics.IncInsufficientStock()
		result.StockWarning = true
	default:
		log.Printf("[reconcile][usecase] stock consumed order_id=%s product_id=%s stock=%d", order.ID, product.ID, product.Stock)
	}

	metrics.IncReconcile(string(entities.OutcomePaid), metrics.ResultApplied)
	return result, nil
}

func (u *ReconcileUseCase) applyTerminal(ctx context.Context, order entities.Order, target entities.OrderStatus, outcome entities.PaymentOutcome) (ReconcileResult, error) {
	if order.Status == target {
		metrics.IncReconcile(string(outcome), metrics.ResultSuppressed)
		return ReconcileResult{Order: order, OldStatus: order.Status, Message: fmt.Sprintf("order already %s", target)}, nil
	}

	old, next, err := entities.Transition(order.Status, target)
	if err != nil {
		log.Printf("[reconcile][usecase] %s notification not applicable order_id=%s status=%s err=%v", outcome, order.ID, order.Status, err)
		metrics.IncReconcile(string(outcome), metrics.ResultSuppressed)
		return ReconcileResult{Order: order, OldStatus: order.Status, Message: fmt.Sprintf("transition not applicable: %v", err)}, nil
	}

	updated, err := u.orders.UpdateStatus(ctx, order.ID, old, next)
	if err != nil {
		metrics.IncReconcile(string(outcome), metrics.ResultError)
		return ReconcileResult{}, err
	}
	if updated.ID == "" {
		fresh, err := u.orders.GetByID(ctx, order.ID)
		if err != nil {
			metrics.IncReconcile(string(outcome), metrics.ResultError)
			return ReconcileResult{}, err
		}
		metrics.IncReconcile(string(outcome), metrics.ResultSuppressed)
		return ReconcileResult{Order: fresh, OldStatus: old, Message: "concurrent reconciliation already applied"}, nil
	}
	log.Printf("[reconcile][usecase] order marked %s order_id=%s old=%s outcome=%s", next, order.ID, old, outcome)

	metrics.IncReconcile(string(outcome), metrics.ResultApplied)
	return ReconcileResult{Order: updated, Applied: true, OldStatus: old, Message: fmt.Sprintf("order marked %s", next)}, nil
}

// ReconcileEvent correlates a normalized provider event to an order and
// reconciles it. Session id is the primary key; the order id embedded in
// provider metadata is the fallback. A miss on both is ErrOrderNotFound —
// callers on the webhook path log and acknowledge it instead of failing.
func (u *ReconcileUseCase) ReconcileEvent(ctx context.Context, ev entities.ProviderEvent) (ReconcileResult, error) {
	var order entities.Order

	if sid := strings.TrimSpace(ev.SessionID); sid != "" {
		found, err := u.orders.GetBySessionID(ctx, sid)
		if err != nil {
			return ReconcileResult{}, err
		}
		order = found
	}
	if order.ID == "" {
		if oid := strings.TrimSpace(ev.OrderID); oid != "" {
			found, err := u.orders.GetByID(ctx, oid)
			if err != nil {
				return ReconcileResult{}, err
			}
			if found.ID != "" {
				log.Printf("[reconcile][usecase] correlated by metadata order_id=%s session_id=%q", found.ID, ev.SessionID)
			}
			order = found
		}
	}
	if order.ID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: session_id=%q order_id=%q", ErrOrderNotFound, ev.SessionID, ev.OrderID)
	}

	return u.Reconcile(ctx, order.ID, ev.Outcome)
}

// CheckPaymentStatus queries the provider for the live status of the order's
// session and reconciles the result (manual poll path). Provider errors leave
// the order untouched and come back as retryable.
func (u *ReconcileUseCase) CheckPaymentStatus(ctx context.Context, orderID string) (ReconcileResult, entities.ProviderEvent, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ReconcileResult{}, entities.ProviderEvent{}, ErrInvalidOrderID
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return ReconcileResult{}, entities.ProviderEvent{}, err
	}
	if order.ID == "" {
		return ReconcileResult{}, entities.ProviderEvent{}, ErrOrderNotFound
	}
	if order.ProviderSessionID == "" {
		return ReconcileResult{}, entities.ProviderEvent{}, ErrNoCheckoutSession
	}

	ev, err := u.gateway.QueryPaymentStatus(ctx, order)
	if err != nil {
		log.Printf("[reconcile][usecase] provider query failed order_id=%s err=%v", orderID, err)
		return ReconcileResult{}, entities.ProviderEvent{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	res, err := u.Reconcile(ctx, order.ID, ev.Outcome)
	if err != nil {
		return ReconcileResult{}, entities.ProviderEvent{}, err
	}
	return res, ev, nil
}

// CheckBySessionID is the success-page fallback: the redirect carries the
// session id, and the order is reconciled before the page responds.
func (u *ReconcileUseCase) CheckBySessionID(ctx context.Context, sessionID string) (ReconcileResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ReconcileResult{}, ErrOrderNotFound
	}

	order, err := u.orders.GetBySessionID(ctx, sessionID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if order.ID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: session_id=%q", ErrOrderNotFound, sessionID)
	}

	ev, err := u.gateway.QueryPaymentStatus(ctx, order)
	if err != nil {
		log.Printf("[reconcile][usecase] success-page provider query failed order_id=%s err=%v", order.ID, err)
		return ReconcileResult{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return u.Reconcile(ctx, order.ID, ev.Outcome)
}
