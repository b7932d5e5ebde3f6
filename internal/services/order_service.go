package services

import (
	"context"
	"fmt"
	"log/slog"

	"pacaprints/internal/amqp"
	"pacaprints/internal/core"
)

// LedgerPublisher publishes ledger export messages. A nil publisher is
// allowed; orders and expenses are then picked up by the worker's catch-up
// scan instead.
type LedgerPublisher interface {
	PublishLedgerSync(ctx context.Context, kind string, id int64) error
}

// OrderStore is the order-side persistence the service needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, o core.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (core.Order, error)
	ListOrders(ctx context.Context, q core.ListQuery) ([]core.Order, error)
	SetOrderFlag(ctx context.Context, id int64, flag string, value bool) (bool, error)
	ProduceOrder(ctx context.Context, orderID int64) (int64, error)
}

// OrderService orchestrates order operations across SQLite and AMQP.
type OrderService struct {
	store     OrderStore
	publisher LedgerPublisher
}

func NewOrderService(store OrderStore, publisher LedgerPublisher) *OrderService {
	return &OrderService{store: store, publisher: publisher}
}

// CreateOrder saves the order locally and publishes a ledger sync message.
// Publish failures are logged, not returned; the order is already saved.
func (s *OrderService) CreateOrder(ctx context.Context, o core.Order) (int64, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateOrder(ctx, o)
	if err != nil {
		return 0, fmt.Errorf("save order: %w", err)
	}

	if err := s.publish(ctx, amqp.KindOrder, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"kind", amqp.KindOrder, "id", id, "error", err)
	}
	return id, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (core.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, q core.ListQuery) ([]core.Order, error) {
	return s.store.ListOrders(ctx, q)
}

// SetFlag sets a printed/shipped flag to an explicit value and returns the
// previous one, so callers can undo the exact transition.
func (s *OrderService) SetFlag(ctx context.Context, id int64, flag string, value bool) (prev bool, err error) {
	return s.store.SetOrderFlag(ctx, id, flag, value)
}

// Produce consumes the order's recipe from stock and records the cost of
// goods on the order.
func (s *OrderService) Produce(ctx context.Context, orderID int64) (cogsPence int64, err error) {
	return s.store.ProduceOrder(ctx, orderID)
}

func (s *OrderService) publish(ctx context.Context, kind string, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger sync message")
		return nil
	}
	return s.publisher.PublishLedgerSync(ctx, kind, id)
}
