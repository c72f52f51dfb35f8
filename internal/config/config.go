package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every externally supplied setting. It is loaded once at
// startup and injected into the components that need it; the reconciliation
// core never reads the environment on its own.
type Config struct {
	Port int

	// Mercado Pago credentials and webhook shared secret.
	MPAccessToken   string
	WebhookSecret   string
	GatewayMockMode bool
	ProviderTimeout time.Duration

	// Static bearer token gating operator endpoints (listing, status updates,
	// manual polls). Order creation and get-by-id stay public: possession of
	// an order id acts as a bearer capability.
	OperatorToken string

	// Base URL used to build checkout back URLs and the notification URL.
	PublicBaseURL string

	ProductsTable string
	OrdersTable   string

	// Orders below this amount are rejected at creation (provider minimum).
	MinOrderAmount float64
}

func Load() (Config, error) {
	cfg := Config{
		Port:            getenvInt("PORT", 8080),
		MPAccessToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		WebhookSecret:   os.Getenv("MERCADOPAGO_WEBHOOK_SECRET"),
		GatewayMockMode: getenvBool("PAYMENT_GATEWAY_MOCK"),
		ProviderTimeout: getenvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		OperatorToken:   os.Getenv("OPERATOR_TOKEN"),
		PublicBaseURL:   getenvDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		ProductsTable:   getenvDefault("PRODUCTS_TABLE", "products"),
		OrdersTable:     getenvDefault("ORDERS_TABLE", "orders"),
		MinOrderAmount:  getenvFloat("MIN_ORDER_AMOUNT", 10.0),
	}

	if cfg.OperatorToken == "" {
		return Config{}, fmt.Errorf("OPERATOR_TOKEN is required")
	}
	if !cfg.GatewayMockMode && cfg.MPAccessToken == "" {
		return Config{}, fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required unless PAYMENT_GATEWAY_MOCK is set")
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
