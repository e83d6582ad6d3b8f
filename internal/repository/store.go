package repository

import (
	"context"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
)

// OrderStore is the contract shared by the backup file store and the
// relational store. Save is idempotent on payment intent id: a repeated
// save updates the status of the existing record instead of duplicating it.
// UpdateStatus is a no-op for unknown ids.
type OrderStore interface {
	Save(ctx context.Context, o *domain.Order) error
	UpdateStatus(ctx context.Context, paymentIntentID, status string) error
	ReadAll(ctx context.Context) ([]domain.Order, error)
}
