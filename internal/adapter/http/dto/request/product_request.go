package request

import (
	"sorbo_shop/internal/domain/entities"
)

// ProductRequest is the payload for product create/update.
//
// Picture is an optional base64 data URI; numeric fields are validated in the
// use case so zero stays a legal value for stock.
type ProductRequest struct {
	Picture     string  `json:"picture"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency" binding:"required"`
}

func (r ProductRequest) ToEntity() entities.Product {
	return entities.Product{
		Picture:     r.Picture,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Stock:       r.Stock,
		Price:       r.Price,
		Currency:    r.Currency,
	}
}
