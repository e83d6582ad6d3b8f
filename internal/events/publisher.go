package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

type orderEvent struct {
	Type            string    `json:"type"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Status          string    `json:"status"`
	Amount          int64     `json:"amount,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher emits order lifecycle events to Kafka for downstream consumers.
// Like the database, it is optional and best-effort: a nil Publisher is a
// valid no-op, and publish failures never fail the request that caused them.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokersSTR, topic string) *Publisher {
	if brokersSTR == "" {
		return nil
	}
	brokers := strings.Split(brokersSTR, ",")

	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}

func (p *Publisher) OrderCreated(ctx context.Context, o *domain.Order) {
	if p == nil {
		return
	}
	p.publish(ctx, orderEvent{
		Type:            OrderCreated,
		PaymentIntentID: o.PaymentIntentID,
		Status:          o.Status,
		Amount:          o.Amount,
		Currency:        o.Currency,
		OccurredAt:      time.Now().UTC(),
	})
}

func (p *Publisher) StatusChanged(ctx context.Context, paymentIntentID, status string) {
	if p == nil {
		return
	}
	p.publish(ctx, orderEvent{
		Type:            OrderStatusChanged,
		PaymentIntentID: paymentIntentID,
		Status:          status,
		OccurredAt:      time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, ev orderEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("event marshal failed", "type", ev.Type, "err", err)
		return
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.PaymentIntentID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		logger.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
