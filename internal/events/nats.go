package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/minhdn/cuestore/internal/domain"
)

// NATSPublisher publishes order events as JSON messages on NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("cuestore"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{
		conn:   conn,
		logger: logger.With(slog.String("component", "events")),
	}, nil
}

// Close drains the connection, flushing buffered messages.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain nats connection", slog.String("error", err.Error()))
	}
}

// orderEvent is the wire form of an order lifecycle event.
type orderEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (p *NATSPublisher) publish(subject string, order *domain.Order, reason string) {
	payload, err := json.Marshal(orderEvent{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.StringFixed(2),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to encode order event", slog.String("error", err.Error()))
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("failed to publish order event",
			slog.String("subject", subject),
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
}

func (p *NATSPublisher) OrderCreated(_ context.Context, order *domain.Order) {
	p.publish(SubjectOrderCreated, order, "")
}

func (p *NATSPublisher) OrderConfirmed(_ context.Context, order *domain.Order) {
	p.publish(SubjectOrderConfirmed, order, "")
}

func (p *NATSPublisher) OrderCancelled(_ context.Context, order *domain.Order, reason string) {
	p.publish(SubjectOrderCancelled, order, reason)
}
