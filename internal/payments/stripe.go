package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
)

// Gateway creates payment intents at the external payment service. The
// checkout service depends on this interface so tests can record calls
// without touching the network.
type Gateway interface {
	CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error)
}

type CreateIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
	Shipping ShippingDetails
}

type ShippingDetails struct {
	Name    string
	Phone   string
	Address domain.Address
}

// Intent is the slice of the gateway response the rest of the service needs:
// the correlation id and the secret the browser uses to complete payment.
type Intent struct {
	ID           string
	ClientSecret string
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, stripe.NewBackends(&http.Client{Timeout: 15 * time.Second}))
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Shipping.Name != "" {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name:  stripe.String(p.Shipping.Name),
			Phone: stripe.String(p.Shipping.Phone),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(p.Shipping.Address.Line1),
				Line2:      stripe.String(p.Shipping.Address.Line2),
				PostalCode: stripe.String(p.Shipping.Address.Zip),
				City:       stripe.String(p.Shipping.Address.City),
				Country:    stripe.String(p.Shipping.Address.Country),
			},
		}
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) {
			return nil, &domain.GatewayError{Code: string(sErr.Code), Msg: sErr.Msg, Err: err}
		}
		return nil, &domain.GatewayError{Msg: err.Error(), Err: err}
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Event is a verified gateway notification. PaymentIntentID is set only for
// payment_intent.* events.
type Event struct {
	Type            string
	PaymentIntentID string
}

// VerifyEvent checks the webhook signature over the raw body and extracts
// the payment intent id. The raw bytes must be passed exactly as received;
// re-encoding the JSON breaks the signature.
func VerifyEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return nil, err
	}
	out := &Event{Type: string(ev.Type)}
	if ev.Data != nil && len(ev.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err == nil {
			out.PaymentIntentID = pi.ID
		}
	}
	return out, nil
}
