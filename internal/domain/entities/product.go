package entities

import "time"

// Product is a catalog item persisted in DynamoDB.
//
// Storage model (DynamoDB):
//   - PK: id
//
// Monetary representation:
//   - Price is a decimal amount in the product's Currency (ISO-like code).
//
// Stock rules:
//   - Stock never goes below zero; the only code path that decrements it is the
//     reconciliation flow, through a conditional update (see ProductDynamoRepository).
type Product struct {
	ID          string    `json:"id"`
	Picture     string    `json:"picture"` // base64 data URI, optional
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
