package request

import (
	"strings"

	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
)

// OrderCreateRequest is the public order-creation payload. Creating an order
// is intentionally unauthenticated; the returned order id acts as a bearer
// capability for later lookups.
type OrderCreateRequest struct {
	ProductID     string `json:"product_id" binding:"required"`
	ClientName    string `json:"client_name" binding:"required"`
	ClientEmail   string `json:"client_email" binding:"required,email"`
	ClientPhone   string `json:"client_phone"`
	ClientAddress string `json:"client_address" binding:"required"`
}

func (r OrderCreateRequest) ToInput() usecase.CreateOrderInput {
	return usecase.CreateOrderInput{
		ProductID:     r.ProductID,
		ClientName:    r.ClientName,
		ClientEmail:   r.ClientEmail,
		ClientPhone:   r.ClientPhone,
		ClientAddress: r.ClientAddress,
	}
}

// StatusUpdateRequest is the operator status-update payload.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r StatusUpdateRequest) ResolveStatus() entities.OrderStatus {
	return entities.OrderStatus(strings.ToLower(strings.TrimSpace(r.Status)))
}
