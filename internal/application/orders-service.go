package application

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
	"github.com/pkonarski/sklep-orders-service/internal/events"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
	"github.com/pkonarski/sklep-orders-service/internal/payments"
	"github.com/pkonarski/sklep-orders-service/internal/repository"
)

// Shipping is a flat 1.00 surcharge added on top of the product price.
const shippingCostMinor = 100

// The shop ships to one country only.
const shippingCountry = "PL"

type OrdersService struct {
	store         *repository.ReplicatingStore
	gateway       payments.Gateway
	pub           *events.Publisher
	adminPassword string
	currency      string
}

func NewOrdersService(store *repository.ReplicatingStore, gateway payments.Gateway, pub *events.Publisher, adminPassword, currency string) *OrdersService {
	return &OrdersService{
		store:         store,
		gateway:       gateway,
		pub:           pub,
		adminPassword: adminPassword,
		currency:      currency,
	}
}

// Price accepts both "99.99" and 99.99: the storefront posts the value it
// scraped from the rendered markup, which arrives as a string.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = Price(n.String())
	return nil
}

type CheckoutRequest struct {
	ProductPrice Price  `json:"productPrice"`
	ProductName  string `json:"productName"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2,omitempty"`
	Zip          string `json:"zip"`
	City         string `json:"city"`
	Phone        string `json:"phone"`
	Delivery     string `json:"delivery"`
}

type CheckoutResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
}

// Checkout validates the request, creates a payment intent at the gateway
// and records the pending order. The order is written only after the gateway
// call succeeds, so a persisted record always has a gateway-side intent
// behind it. Persistence failure does not fail the checkout: the intent
// already exists and the browser still needs the client secret to finish
// the payment.
func (s *OrdersService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	required := []struct{ field, value string }{
		{"email", req.Email},
		{"fullName", req.FullName},
		{"address1", req.Address1},
		{"zip", req.Zip},
		{"city", req.City},
		{"phone", req.Phone},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, &domain.ValidationError{Field: f.field}
		}
	}

	amount, err := totalAmount(req.ProductPrice)
	if err != nil {
		return nil, err
	}

	productName := req.ProductName
	if productName == "" {
		productName = "Produkt"
	}

	address := domain.Address{
		Line1:   req.Address1,
		Line2:   req.Address2,
		Zip:     req.Zip,
		City:    req.City,
		Country: shippingCountry,
	}

	intent, err := s.gateway.CreateIntent(ctx, payments.CreateIntentParams{
		Amount:   amount,
		Currency: s.currency,
		Metadata: map[string]string{
			"product_name":  productName,
			"product_price": string(req.ProductPrice),
			"customer":      req.FullName,
			"email":         req.Email,
			"address":       address.Line1 + ", " + address.Zip + " " + address.City,
			"delivery":      req.Delivery,
			"ordered_at":    time.Now().UTC().Format(time.RFC3339),
		},
		Shipping: payments.ShippingDetails{
			Name:    req.FullName,
			Phone:   req.Phone,
			Address: address,
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        s.currency,
		ProductName:     productName,
		Customer: domain.Customer{
			Email:    req.Email,
			FullName: req.FullName,
			Phone:    req.Phone,
		},
		Address:      address,
		Delivery:     req.Delivery,
		Status:       domain.StatusPending,
		ClientSecret: intent.ClientSecret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, order); err != nil {
		logger.Error("order persist failed after gateway call", "payment_intent_id", intent.ID, "err", err)
	} else {
		s.pub.OrderCreated(ctx, order)
	}

	return &CheckoutResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
	}, nil
}

// totalAmount converts the decimal price to minor units, rounding half-up,
// and adds the flat shipping surcharge.
func totalAmount(price Price) (int64, error) {
	p, err := decimal.NewFromString(string(price))
	if err != nil || !p.IsPositive() {
		return 0, domain.ErrInvalidPrice
	}
	minor := p.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return minor + shippingCostMinor, nil
}

// UpdateStatus moves an order through its lifecycle. Unknown ids are a
// successful no-op: the endpoint is fed by asynchronous, possibly replayed
// gateway notifications and must stay permissive.
func (s *OrdersService) UpdateStatus(ctx context.Context, paymentIntentID, status string) error {
	if paymentIntentID == "" {
		return &domain.ValidationError{Field: "paymentIntentId"}
	}
	if !domain.ValidStatus(status) {
		return domain.ErrInvalidStatus
	}
	if err := s.store.UpdateStatus(ctx, paymentIntentID, status); err != nil {
		return err
	}
	s.pub.StatusChanged(ctx, paymentIntentID, status)
	return nil
}

// AdminOrders returns the merged order list after a shared-secret check.
// Client secrets are stripped: they are only ever returned on the direct
// checkout response.
func (s *OrdersService) AdminOrders(ctx context.Context, password string) ([]domain.Order, bool, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		return nil, false, domain.ErrUnauthorized
	}
	orders, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range orders {
		orders[i].ClientSecret = ""
	}
	return orders, s.store.HasDatabase(), nil
}

// HandleGatewayEvent maps verified webhook events onto status updates.
// Event types without an order-side effect are logged and acknowledged.
func (s *OrdersService) HandleGatewayEvent(ctx context.Context, ev *payments.Event) {
	switch ev.Type {
	case "payment_intent.succeeded":
		if err := s.UpdateStatus(ctx, ev.PaymentIntentID, domain.StatusSucceeded); err != nil {
			logger.Warn("webhook status update failed", "payment_intent_id", ev.PaymentIntentID, "err", err)
		}
	case "payment_intent.payment_failed":
		if err := s.UpdateStatus(ctx, ev.PaymentIntentID, domain.StatusFailed); err != nil {
			logger.Warn("webhook status update failed", "payment_intent_id", ev.PaymentIntentID, "err", err)
		}
	default:
		logger.Info("unhandled gateway event", "type", ev.Type)
	}
}
