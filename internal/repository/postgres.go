package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
)

const queryTimeout = 5 * time.Second

// PostgresStore is the relational copy of the order set. It shares the
// OrderStore contract with FileStore; the replicating façade decides which
// failures matter.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Retried saves for the same payment intent only touch status,
	// matching the file store's conflict behavior.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders
			(id, payment_intent_id, amount, currency, product_name,
			 email, full_name, phone,
			 address_line1, address_line2, zip, city, country,
			 delivery, status, client_secret, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5,
			 $6, $7, $8,
			 $9, $10, $11, $12, $13,
			 $14, $15, $16, $17, $18)
		ON CONFLICT (payment_intent_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = now()
	`,
		o.ID,
		o.PaymentIntentID,
		o.Amount,
		o.Currency,
		o.ProductName,
		o.Customer.Email,
		o.Customer.FullName,
		o.Customer.Phone,
		o.Address.Line1,
		o.Address.Line2,
		o.Address.Zip,
		o.Address.City,
		o.Address.Country,
		o.Delivery,
		o.Status,
		o.ClientSecret,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, paymentIntentID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Zero rows affected means the id is unknown, which the status update
	// contract treats as a successful no-op.
	_, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE payment_intent_id = $1
	`, paymentIntentID, status)
	return err
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, payment_intent_id, amount, currency, product_name,
		       email, full_name, phone,
		       address_line1, address_line2, zip, city, country,
		       delivery, status, client_secret, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.PaymentIntentID,
			&o.Amount,
			&o.Currency,
			&o.ProductName,
			&o.Customer.Email,
			&o.Customer.FullName,
			&o.Customer.Phone,
			&o.Address.Line1,
			&o.Address.Line2,
			&o.Address.Zip,
			&o.Address.City,
			&o.Address.Country,
			&o.Delivery,
			&o.Status,
			&o.ClientSecret,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
