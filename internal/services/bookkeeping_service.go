package services

import (
	"context"
	"fmt"
	"log/slog"

	"pacaprints/internal/amqp"
	"pacaprints/internal/core"
)

// BookkeepingStore is the expense and mileage persistence the service needs.
type BookkeepingStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, from, toExclusive core.Date) ([]core.Expense, error)
	CreateMileageLog(ctx context.Context, m core.MileageLog) (int64, error)
	ListMileageLogs(ctx context.Context, from, toExclusive core.Date) ([]core.MileageLog, error)
}

// BookkeepingService records expenses and mileage.
type BookkeepingService struct {
	store     BookkeepingStore
	publisher LedgerPublisher
}

func NewBookkeepingService(store BookkeepingStore, publisher LedgerPublisher) *BookkeepingService {
	return &BookkeepingService{store: store, publisher: publisher}
}

// CreateExpense saves the expense locally and publishes a ledger sync
// message. Publish failures are logged, not returned.
func (s *BookkeepingService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger sync message")
		return id, nil
	}
	if err := s.publisher.PublishLedgerSync(ctx, amqp.KindExpense, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"kind", amqp.KindExpense, "id", id, "error", err)
	}
	return id, nil
}

func (s *BookkeepingService) ListExpenses(ctx context.Context, from, toExclusive core.Date) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, from, toExclusive)
}

func (s *BookkeepingService) CreateMileageLog(ctx context.Context, m core.MileageLog) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateMileageLog(ctx, m)
}

func (s *BookkeepingService) ListMileageLogs(ctx context.Context, from, toExclusive core.Date) ([]core.MileageLog, error) {
	return s.store.ListMileageLogs(ctx, from, toExclusive)
}
