package interfaces

import (
	"context"
	"sorbo_shop/internal/domain/entities"
)

// IProductRepository abstracts DynamoDB persistence for Product.
//
// DecrementStock is the only stock mutation besides admin edits: it performs a
// conditional decrement (stock >= quantity) in a single storage operation and
// returns a zero-value Product when the condition fails, so concurrent orders
// can never both consume the last unit.
type IProductRepository interface {
	Create(ctx context.Context, p entities.Product) (entities.Product, error)
	GetByID(ctx context.Context, id string) (entities.Product, error)
	List(ctx context.Context) ([]entities.Product, error)
	Update(ctx context.Context, p entities.Product) (entities.Product, error)
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) (entities.Product, error)
}
