package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase/interfaces"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrderID        = errors.New("invalid order id")
	ErrInvalidOrderInput     = errors.New("invalid order input")
	ErrProductOutOfStock     = errors.New("product out of stock")
	ErrAmountBelowMinimum    = errors.New("order amount below provider minimum")
	ErrCheckoutSessionFailed = errors.New("checkout session creation failed")
	ErrStatusConflict        = errors.New("order status changed concurrently")
)

// CreateOrderInput carries the public order-creation payload. Client identity
// fields are captured once and immutable afterwards.
type CreateOrderInput struct {
	ProductID     string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
}

// CreatedOrder is the order plus the hosted checkout URL the client is
// redirected to.
type CreatedOrder struct {
	Order       entities.Order
	CheckoutURL string
}

// StatusUpdate echoes an applied operator transition.
type StatusUpdate struct {
	OrderID   string
	OldStatus entities.OrderStatus
	NewStatus entities.OrderStatus
}

// IOrderUseCase exposes order operations outside the reconciliation flow:
// creation (with checkout-session bootstrap), lookups and operator-driven
// status updates.
type IOrderUseCase interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (CreatedOrder, error)
	GetByID(ctx context.Context, id string) (entities.Order, entities.Product, error)
	List(ctx context.Context) ([]entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, requested entities.OrderStatus) (StatusUpdate, error)
}

type OrderUseCase struct {
	orders    interfaces.IOrderRepository
	products  interfaces.IProductRepository
	gateway   interfaces.ICheckoutGateway
	minAmount float64
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(orders interfaces.IOrderRepository, products interfaces.IProductRepository, gateway interfaces.ICheckoutGateway, minAmount float64) *OrderUseCase {
	return &OrderUseCase{orders: orders, products: products, gateway: gateway, minAmount: minAmount}
}

// CreateOrder persists a pending order, opens the hosted checkout session and
// stores the returned session id on the order. If session creation fails the
// order is marked failed so it is never left pending with no way to pay.
func (u *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (CreatedOrder, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	in.ClientAddress = strings.TrimSpace(in.ClientAddress)
	if in.ProductID == "" || in.ClientName == "" || in.ClientAddress == "" {
		return CreatedOrder{}, ErrInvalidOrderInput
	}
	if in.ClientEmail == "" || !strings.Contains(in.ClientEmail, "@") {
		return CreatedOrder{}, ErrInvalidOrderInput
	}

	product, err := u.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return CreatedOrder{}, err
	}
	if product.ID == "" {
		return CreatedOrder{}, ErrProductNotFound
	}
	if product.Stock <= 0 {
		log.Printf("[order][usecase] create rejected product_id=%s reason=out_of_stock", product.ID)
		return CreatedOrder{}, ErrProductOutOfStock
	}
	if product.Price < u.minAmount {
		log.Printf("[order][usecase] create rejected product_id=%s reason=below_minimum price=%.2f min=%.2f", product.ID, product.Price, u.minAmount)
		return CreatedOrder{}, ErrAmountBelowMinimum
	}

	now := time.Now().UTC()
	order := entities.Order{
		ID:            uuid.NewString(),
		ProductID:     product.ID,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		ClientPhone:   strings.TrimSpace(in.ClientPhone),
		ClientAddress: in.ClientAddress,
		Status:        entities.OrderStatusPending,
		Total:         product.Price,
		Currency:      product.Currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	order, err = u.orders.Create(ctx, order)
	if err != nil {
		log.Printf("[order][usecase] create failed product_id=%s err=%v", product.ID, err)
		return CreatedOrder{}, err
	}
	log.Printf("[order][usecase] order created order_id=%s product_id=%s total=%.2f %s", order.ID, product.ID, order.Total, order.Currency)

	session, err := u.gateway.CreateCheckoutSession(ctx, order, product)
	if err != nil {
		log.Printf("[order][usecase] checkout session failed order_id=%s err=%v", order.ID, err)
		// Never leave the order pending with no way to pay.
		if _, mErr := u.orders.UpdateStatus(ctx, order.ID, entities.OrderStatusPending, entities.OrderStatusFailed); mErr != nil {
			log.Printf("[order][usecase] marking order failed also failed order_id=%s err=%v", order.ID, mErr)
		}
		return CreatedOrder{}, fmt.Errorf("%w: %v", ErrCheckoutSessionFailed, err)
	}

	order, err = u.orders.UpdateSessionID(ctx, order.ID, session.SessionID)
	if err != nil {
		log.Printf("[order][usecase] storing session id failed order_id=%s session_id=%s err=%v", order.ID, session.SessionID, err)
		return CreatedOrder{}, err
	}
	log.Printf("[order][usecase] checkout session attached order_id=%s session_id=%s", order.ID, session.SessionID)

	return CreatedOrder{Order: order, CheckoutURL: session.CheckoutURL}, nil
}

func (u *OrderUseCase) GetByID(ctx context.Context, id string) (entities.Order, entities.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, entities.Product{}, ErrInvalidOrderID
	}

	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, entities.Product{}, err
	}
	if order.ID == "" {
		return entities.Order{}, entities.Product{}, ErrOrderNotFound
	}

	product, err := u.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return entities.Order{}, entities.Product{}, err
	}
	return order, product, nil
}

func (u *OrderUseCase) List(ctx context.Context) ([]entities.Order, error) {
	return u.orders.List(ctx)
}

// UpdateStatus applies an operator-forced transition. Unlike the
// reconciliation path, state-machine errors are surfaced verbatim.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, orderID string, requested entities.OrderStatus) (StatusUpdate, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return StatusUpdate{}, ErrInvalidOrderID
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return StatusUpdate{}, err
	}
	if order.ID == "" {
		return StatusUpdate{}, ErrOrderNotFound
	}

	old, next, err := entities.Transition(order.Status, requested)
	if err != nil {
		log.Printf("[order][usecase] operator transition rejected order_id=%s from=%s to=%s err=%v", orderID, order.Status, requested, err)
		return StatusUpdate{}, err
	}

	updated, err := u.orders.UpdateStatus(ctx, orderID, old, next)
	if err != nil {
		return StatusUpdate{}, err
	}
	if updated.ID == "" {
		// Lost a race against another writer; the operator should re-read.
		return StatusUpdate{}, ErrStatusConflict
	}
	log.Printf("[order][usecase] operator transition applied order_id=%s old=%s new=%s", orderID, old, next)

	return StatusUpdate{OrderID: orderID, OldStatus: old, NewStatus: next}, nil
}
