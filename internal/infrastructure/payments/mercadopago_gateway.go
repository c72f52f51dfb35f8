package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	appconfig "sorbo_shop/internal/config"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/merchantorder"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

var (
	ErrMissingAccessToken   = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrGatewayNotConfigured = errors.New("mercado pago gateway not configured")
)

// MercadoPagoGateway implements ICheckoutGateway on Checkout Pro.
//
// A hosted checkout session is a preference: its id becomes the order's
// provider_session_id and InitPoint is the URL the client pays on. The
// preference carries external_reference = order id plus an order_id metadata
// entry, which is what makes webhook and poll results correlatable later.
//
// Every provider call runs under the configured timeout; a timeout or
// provider error never mutates anything locally.
type MercadoPagoGateway struct {
	preferences    preference.Client
	payments       payment.Client
	merchantOrders merchantorder.Client
	baseURL        string
	timeout        time.Duration
	mockMode       bool
}

var _ interfaces.ICheckoutGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(cfg appconfig.Config) (*MercadoPagoGateway, error) {
	if cfg.GatewayMockMode {
		log.Printf("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true, baseURL: cfg.PublicBaseURL, timeout: cfg.ProviderTimeout}, nil
	}

	if cfg.MPAccessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingAccessToken
	}

	sdkCfg, err := config.New(cfg.MPAccessToken)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{
		preferences:    preference.NewClient(sdkCfg),
		payments:       payment.NewClient(sdkCfg),
		merchantOrders: merchantorder.NewClient(sdkCfg),
		baseURL:        cfg.PublicBaseURL,
		timeout:        cfg.ProviderTimeout,
	}, nil
}

func (g *MercadoPagoGateway) CreateCheckoutSession(ctx context.Context, o entities.Order, p entities.Product) (entities.CheckoutSession, error) {
	if g.mockMode {
		id := "mock-pref-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		log.Printf("[payment][gateway] mock session created order_id=%s session_id=%s", o.ID, id)
		return entities.CheckoutSession{
			SessionID:   id,
			CheckoutURL: g.baseURL + "/v1/checkout/success?session_id=" + id,
		}, nil
	}
	if g.preferences == nil {
		return entities.CheckoutSession{}, ErrGatewayNotConfigured
	}

	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:          p.ID,
				Title:       p.Name,
				Description: p.Description,
				Quantity:    1,
				UnitPrice:   o.Total,
				CurrencyID:  o.Currency,
			},
		},
		Payer: &preference.PayerRequest{
			Name:  o.ClientName,
			Email: o.ClientEmail,
		},
		ExternalReference: o.ID,
		NotificationURL:   g.baseURL + "/v1/payments/webhook",
		BackURLs: &preference.BackURLsRequest{
			Success: g.baseURL + "/v1/checkout/success",
			Pending: g.baseURL + "/v1/checkout/success",
			Failure: g.baseURL + "/v1/checkout/cancel",
		},
		Metadata: map[string]any{
			"order_id":   o.ID,
			"product_id": p.ID,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	log.Printf("[payment][gateway] preference create start order_id=%s amount=%.2f %s", o.ID, o.Total, o.Currency)
	resp, err := g.preferences.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][gateway] preference create failed order_id=%s err=%v", o.ID, err)
		return entities.CheckoutSession{}, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return entities.CheckoutSession{}, err
	}
	log.Printf("[payment][gateway] preference create success order_id=%s session_id=%s", o.ID, resp.ID)

	return entities.CheckoutSession{SessionID: resp.ID, CheckoutURL: resp.InitPoint, Raw: raw}, nil
}

// QueryPaymentStatus searches the provider's payments by external reference
// (the order id). No payment yet means the session is still pending.
func (g *MercadoPagoGateway) QueryPaymentStatus(ctx context.Context, o entities.Order) (entities.ProviderEvent, error) {
	if g.mockMode {
		log.Printf("[payment][gateway] mock status query order_id=%s", o.ID)
		return entities.ProviderEvent{
			SessionID:      o.ProviderSessionID,
			OrderID:        o.ID,
			Outcome:        entities.OutcomePaid,
			ProviderStatus: "approved",
			StatusDetail:   "accredited",
		}, nil
	}
	if g.payments == nil {
		return entities.ProviderEvent{}, ErrGatewayNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.payments.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{
			"external_reference": o.ID,
			"sort":               "date_created",
			"criteria":           "desc",
		},
	})
	if err != nil {
		log.Printf("[payment][gateway] payment search failed order_id=%s err=%v", o.ID, err)
		return entities.ProviderEvent{}, err
	}
	if len(resp.Results) == 0 {
		log.Printf("[payment][gateway] no payment yet order_id=%s session_id=%s", o.ID, o.ProviderSessionID)
		return entities.ProviderEvent{
			SessionID: o.ProviderSessionID,
			OrderID:   o.ID,
			Outcome:   entities.OutcomeStillPending,
		}, nil
	}

	latest := resp.Results[0]
	return g.eventFromPayment(&latest, o.ProviderSessionID)
}

// ResolvePaymentNotification fetches the payment referenced by a webhook
// notification (type=payment) and normalizes it.
func (g *MercadoPagoGateway) ResolvePaymentNotification(ctx context.Context, paymentID string) (entities.ProviderEvent, error) {
	if g.mockMode {
		return entities.ProviderEvent{OrderID: paymentID, Outcome: entities.OutcomePaid, ProviderStatus: "approved"}, nil
	}
	if g.payments == nil {
		return entities.ProviderEvent{}, ErrGatewayNotConfigured
	}

	id, err := strconv.Atoi(strings.TrimSpace(paymentID))
	if err != nil {
		return entities.ProviderEvent{}, fmt.Errorf("malformed payment id %q: %w", paymentID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		log.Printf("[payment][gateway] payment fetch failed payment_id=%d err=%v", id, err)
		return entities.ProviderEvent{}, err
	}
	return g.eventFromPayment(resp, "")
}

// ResolveMerchantOrderNotification fetches the merchant order referenced by a
// webhook notification (topic=merchant_order). Merchant orders carry both the
// preference id (primary correlation key) and the external reference.
func (g *MercadoPagoGateway) ResolveMerchantOrderNotification(ctx context.Context, merchantOrderID string) (entities.ProviderEvent, error) {
	if g.mockMode {
		return entities.ProviderEvent{OrderID: merchantOrderID, Outcome: entities.OutcomePaid, ProviderStatus: "paid"}, nil
	}
	if g.merchantOrders == nil {
		return entities.ProviderEvent{}, ErrGatewayNotConfigured
	}

	id, err := strconv.Atoi(strings.TrimSpace(merchantOrderID))
	if err != nil {
		return entities.ProviderEvent{}, fmt.Errorf("malformed merchant order id %q: %w", merchantOrderID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.merchantOrders.Get(ctx, id)
	if err != nil {
		log.Printf("[payment][gateway] merchant order fetch failed merchant_order_id=%d err=%v", id, err)
		return entities.ProviderEvent{}, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return entities.ProviderEvent{}, err
	}

	outcome := outcomeFromMerchantOrderStatus(resp.OrderStatus)
	log.Printf("[payment][gateway] merchant order resolved merchant_order_id=%d order_status=%s outcome=%s", id, resp.OrderStatus, outcome)

	return entities.ProviderEvent{
		SessionID:      resp.PreferenceID,
		OrderID:        resp.ExternalReference,
		Outcome:        outcome,
		ProviderStatus: resp.OrderStatus,
		Raw:            raw,
	}, nil
}

func (g *MercadoPagoGateway) eventFromPayment(p *payment.Response, sessionID string) (entities.ProviderEvent, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return entities.ProviderEvent{}, err
	}

	orderID := strings.TrimSpace(p.ExternalReference)
	if orderID == "" {
		orderID = metadataString(p.Metadata, "order_id")
	}

	outcome := outcomeFromPaymentStatus(p.Status, p.StatusDetail)
	log.Printf("[payment][gateway] payment resolved payment_id=%d status=%s detail=%s outcome=%s", p.ID, p.Status, p.StatusDetail, outcome)

	return entities.ProviderEvent{
		SessionID:      sessionID,
		OrderID:        orderID,
		Outcome:        outcome,
		ProviderStatus: p.Status,
		StatusDetail:   p.StatusDetail,
		Raw:            raw,
	}, nil
}

// outcomeFromPaymentStatus maps Mercado Pago payment statuses to the
// reconciliation vocabulary. Unknown statuses degrade to StillPending so a
// new provider status can never corrupt local state.
func outcomeFromPaymentStatus(status, detail string) entities.PaymentOutcome {
	switch status {
	case "approved":
		return entities.OutcomePaid
	case "rejected":
		return entities.OutcomeFailed
	case "cancelled":
		if strings.Contains(detail, "expired") {
			return entities.OutcomeExpired
		}
		return entities.OutcomeCanceled
	case "refunded", "charged_back":
		return entities.OutcomeCanceled
	case "pending", "in_process", "in_mediation", "authorized":
		return entities.OutcomeStillPending
	default:
		log.Printf("[payment][gateway] unknown payment status %q, treating as still pending", status)
		return entities.OutcomeStillPending
	}
}

func outcomeFromMerchantOrderStatus(orderStatus string) entities.PaymentOutcome {
	switch orderStatus {
	case "paid":
		return entities.OutcomePaid
	case "expired":
		return entities.OutcomeExpired
	case "reverted", "partially_reverted":
		return entities.OutcomeCanceled
	case "payment_required", "partially_paid", "payment_in_process", "undefined":
		return entities.OutcomeStillPending
	default:
		log.Printf("[payment][gateway] unknown merchant order status %q, treating as still pending", orderStatus)
		return entities.OutcomeStillPending
	}
}

func metadataString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "<nil>" {
		return ""
	}
	return s
}
