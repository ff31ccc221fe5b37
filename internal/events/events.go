package events

import (
	"context"

	"github.com/minhdn/cuestore/internal/domain"
)

// Subjects published on the message bus.
const (
	SubjectOrderCreated   = "order.created"
	SubjectOrderConfirmed = "order.confirmed"
	SubjectOrderCancelled = "order.cancelled"
)

// Publisher emits order lifecycle events for downstream consumers (email,
// analytics). Publishing is always best-effort: implementations log failures
// and never return them to the checkout path.
type Publisher interface {
	OrderCreated(ctx context.Context, order *domain.Order)
	OrderConfirmed(ctx context.Context, order *domain.Order)
	OrderCancelled(ctx context.Context, order *domain.Order, reason string)
}

// NoopPublisher discards all events. Used when no message bus is configured
// and in tests.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, *domain.Order)           {}
func (NoopPublisher) OrderConfirmed(context.Context, *domain.Order)         {}
func (NoopPublisher) OrderCancelled(context.Context, *domain.Order, string) {}
