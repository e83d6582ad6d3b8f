package presentation

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkonarski/sklep-orders-service/internal/application"
	"github.com/pkonarski/sklep-orders-service/internal/domain"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
	"github.com/pkonarski/sklep-orders-service/internal/payments"
	"github.com/pkonarski/sklep-orders-service/internal/presentation/helpers"
)

const maxBodyBytes = 64 << 10

type OrdersHandler struct {
	svc           *application.OrdersService
	webhookSecret string
}

func NewOrdersHandler(svc *application.OrdersService, webhookSecret string) *OrdersHandler {
	return &OrdersHandler{svc: svc, webhookSecret: webhookSecret}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/update-order-status", h.UpdateOrderStatus)
	r.Post("/admin-login", h.AdminLogin)
	r.Post("/webhook", h.Webhook)
}

func (h *OrdersHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req application.CheckoutRequest
	if err := helpers.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		helpers.HttpErrorCode(w, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	res, err := h.svc.Checkout(r.Context(), &req)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var gErr *domain.GatewayError
	switch {
	case errors.As(err, &vErr):
		helpers.HttpErrorCode(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		helpers.HttpErrorCode(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.As(err, &gErr):
		status := http.StatusInternalServerError
		if gErr.Code != "" {
			// the gateway rejected the request rather than being unreachable
			status = http.StatusBadRequest
		}
		code := gErr.Code
		if code == "" {
			code = "gateway_error"
		}
		helpers.HttpErrorCode(w, status, code, gErr.Error())
	default:
		helpers.HttpErrorCode(w, http.StatusInternalServerError, "internal", "checkout failed")
	}
}

type statusUpdateRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
}

func (h *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := helpers.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		helpers.HttpErrorCode(w, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), req.PaymentIntentID, req.Status); err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			helpers.HttpErrorCode(w, http.StatusBadRequest, "validation_error", vErr.Error())
		case errors.Is(err, domain.ErrInvalidStatus):
			helpers.HttpErrorCode(w, http.StatusBadRequest, "invalid_status", err.Error())
		default:
			helpers.HttpErrorCode(w, http.StatusInternalServerError, "internal", "failed to update order status")
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (h *OrdersHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := helpers.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		helpers.HttpErrorCode(w, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	orders, hasDB, err := h.svc.AdminOrders(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			// deliberately generic, no hint about which check failed
			helpers.HttpError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		helpers.HttpErrorCode(w, http.StatusInternalServerError, "internal", "failed to read orders")
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"orders":      orders,
		"hasDatabase": hasDB,
	})
}

// Webhook receives gateway notifications. The body must stay raw for the
// signature check, so this handler never goes through DecodeJSON.
func (h *OrdersHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	ev, err := payments.VerifyEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Warn("webhook signature verification failed", "err", err)
		helpers.HttpError(w, http.StatusBadRequest, "webhook signature verification failed")
		return
	}

	h.svc.HandleGatewayEvent(r.Context(), ev)
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}
