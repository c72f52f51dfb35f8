package response

import (
	"sorbo_shop/internal/domain/entities"
	"time"
)

type ProductResponse struct {
	ID          string    `json:"id"`
	Picture     string    `json:"picture"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromProduct(p entities.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Picture:     p.Picture,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		Stock:       p.Stock,
		Price:       p.Price,
		Currency:    p.Currency,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromProducts(products []entities.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}
