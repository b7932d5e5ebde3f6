package services

import (
	"context"
	"fmt"
	"log/slog"

	"pacaprints/internal/amqp"
	"pacaprints/internal/core"
)

// PurchaseStore is the purchasing-side persistence the service needs.
type PurchaseStore interface {
	CreatePurchaseOrder(ctx context.Context, po core.PurchaseOrder) (int64, error)
	GetPurchaseOrder(ctx context.Context, id int64) (core.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]core.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, id int64, receivedOn core.Date) (int64, error)
}

// PurchaseService handles purchase orders and their arrival into stock.
type PurchaseService struct {
	store     PurchaseStore
	publisher LedgerPublisher
}

func NewPurchaseService(store PurchaseStore, publisher LedgerPublisher) *PurchaseService {
	return &PurchaseService{store: store, publisher: publisher}
}

func (s *PurchaseService) Create(ctx context.Context, po core.PurchaseOrder) (int64, error) {
	if err := po.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreatePurchaseOrder(ctx, po)
}

func (s *PurchaseService) Get(ctx context.Context, id int64) (core.PurchaseOrder, error) {
	return s.store.GetPurchaseOrder(ctx, id)
}

func (s *PurchaseService) List(ctx context.Context) ([]core.PurchaseOrder, error) {
	return s.store.ListPurchaseOrders(ctx)
}

// Receive marks the purchase received. Storage opens the stock batch and
// books the Materials expense in one transaction; the new expense is then
// announced to the ledger worker. Publish failures are logged only.
func (s *PurchaseService) Receive(ctx context.Context, id int64, receivedOn core.Date) error {
	if err := receivedOn.Validate(); err != nil {
		return err
	}

	expenseID, err := s.store.ReceivePurchaseOrder(ctx, id, receivedOn)
	if err != nil {
		return fmt.Errorf("receive purchase order: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger sync message")
		return nil
	}
	if err := s.publisher.PublishLedgerSync(ctx, amqp.KindExpense, expenseID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"kind", amqp.KindExpense, "id", expenseID, "error", err)
	}
	return nil
}
