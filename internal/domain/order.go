package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order statuses follow the payment-intent lifecycle: every order starts
// pending and moves to succeeded or failed via the status update endpoint.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// SourceBackup marks records that were found only in the backup file during
// a merged read, i.e. the database copy is missing.
const SourceBackup = "backup"

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusSucceeded || s == StatusFailed
}

type Customer struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Order struct {
	ID              uuid.UUID `json:"id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Amount          int64     `json:"amount"` // minor units, shipping included
	Currency        string    `json:"currency"`
	ProductName     string    `json:"product_name"`
	Customer        Customer  `json:"customer"`
	Address         Address   `json:"address"`
	Delivery        string    `json:"delivery"`
	Status          string    `json:"status"`
	ClientSecret    string    `json:"client_secret,omitempty"`
	Source          string    `json:"source,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrInvalidPrice  = errors.New("product price must be a positive number")
	ErrInvalidStatus = errors.New("unknown order status")
	ErrUnauthorized  = errors.New("unauthorized")
)

// ValidationError names the first missing required checkout field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// GatewayError carries the payment gateway's error code through to the
// client response when the gateway provides one.
type GatewayError struct {
	Code string
	Msg  string
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway error (%s): %s", e.Code, e.Msg)
	}
	return "payment gateway error: " + e.Msg
}

func (e *GatewayError) Unwrap() error { return e.Err }
