package interfaces

import (
	"context"
	"sorbo_shop/internal/domain/entities"
)

// IOrderRepository abstracts DynamoDB persistence for Order.
//
// UpdateStatus is a compare-and-set: the write only succeeds when the stored
// status still equals expected, and a zero-value Order is returned when it
// does not. Two racing reconciliations for the same order therefore resolve
// to exactly one winner; the loser re-reads and observes the new state.
type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (entities.Order, error)
	List(ctx context.Context) ([]entities.Order, error)
	UpdateStatus(ctx context.Context, id string, expected, next entities.OrderStatus) (entities.Order, error)
	UpdateSessionID(ctx context.Context, id, sessionID string) (entities.Order, error)
}
