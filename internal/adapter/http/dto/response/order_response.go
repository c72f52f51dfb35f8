package response

import (
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase"
	"time"
)

// OrderProductSummary is the product snapshot embedded in order responses.
type OrderProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Stock    int     `json:"stock"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	Product           OrderProductSummary `json:"product"`
	ClientName        string              `json:"client_name"`
	ClientEmail       string              `json:"client_email"`
	ClientPhone       string              `json:"client_phone"`
	ClientAddress     string              `json:"client_address"`
	Status            string              `json:"status"`
	Total             float64             `json:"total"`
	Currency          string              `json:"currency"`
	ProviderSessionID string              `json:"provider_session_id"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func FromOrder(o entities.Order, p entities.Product) OrderResponse {
	return OrderResponse{
		ID: o.ID,
		Product: OrderProductSummary{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Currency: p.Currency,
			Stock:    p.Stock,
		},
		ClientName:        o.ClientName,
		ClientEmail:       o.ClientEmail,
		ClientPhone:       o.ClientPhone,
		ClientAddress:     o.ClientAddress,
		Status:            string(o.Status),
		Total:             o.Total,
		Currency:          o.Currency,
		ProviderSessionID: o.ProviderSessionID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// OrderCreatedResponse is returned by order creation: the order id plus where
// to pay.
type OrderCreatedResponse struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

func FromCreatedOrder(c usecase.CreatedOrder) OrderCreatedResponse {
	return OrderCreatedResponse{
		OrderID:     c.Order.ID,
		SessionID:   c.Order.ProviderSessionID,
		CheckoutURL: c.CheckoutURL,
	}
}

type OrderStatusResponse struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromOrderStatus(o entities.Order) OrderStatusResponse {
	return OrderStatusResponse{
		OrderID:   o.ID,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// StatusUpdateResponse echoes an applied operator transition.
type StatusUpdateResponse struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

func FromStatusUpdate(s usecase.StatusUpdate) StatusUpdateResponse {
	return StatusUpdateResponse{
		OrderID:   s.OrderID,
		OldStatus: string(s.OldStatus),
		NewStatus: string(s.NewStatus),
	}
}

// PaymentCheckResponse is returned by the manual poll endpoint: the provider's
// raw status fields alongside the resulting order status.
type PaymentCheckResponse struct {
	OrderID        string `json:"order_id"`
	OrderStatus    string `json:"order_status"`
	Applied        bool   `json:"applied"`
	ProviderStatus string `json:"provider_status"`
	StatusDetail   string `json:"status_detail,omitempty"`
	Outcome        string `json:"outcome"`
	Message        string `json:"message,omitempty"`
}

func FromPaymentCheck(res usecase.ReconcileResult, ev entities.ProviderEvent) PaymentCheckResponse {
	return PaymentCheckResponse{
		OrderID:        res.Order.ID,
		OrderStatus:    string(res.Order.Status),
		Applied:        res.Applied,
		ProviderStatus: ev.ProviderStatus,
		StatusDetail:   ev.StatusDetail,
		Outcome:        string(ev.Outcome),
		Message:        res.Message,
	}
}
