// Package worker drives the export of orders and expenses to the ledger
// spreadsheet, both on demand (AMQP messages) and as a catch-up scan.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"pacaprints/internal/amqp"
	"pacaprints/internal/core"
	"pacaprints/internal/export"
)

// Store is the persistence the worker needs: record lookup plus the
// sync-status bookkeeping that makes the catch-up scan possible.
type Store interface {
	GetOrder(ctx context.Context, id int64) (core.Order, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)

	PendingLedgerOrders(ctx context.Context, limit int) ([]int64, error)
	PendingLedgerExpenses(ctx context.Context, limit int) ([]int64, error)

	MarkOrderSynced(ctx context.Context, id int64) error
	MarkOrderSyncError(ctx context.Context, id int64) error
	MarkExpenseSynced(ctx context.Context, id int64) error
	MarkExpenseSyncError(ctx context.Context, id int64) error
}

type LedgerWorker struct {
	store     Store
	ledger    export.LedgerWriter
	batchSize int
}

func NewLedgerWorker(store Store, ledger export.LedgerWriter, batchSize int) *LedgerWorker {
	return &LedgerWorker{store: store, ledger: ledger, batchSize: batchSize}
}

// HandleMessage exports the record a queue message points at. Returning an
// error makes the consumer nack and requeue the delivery.
func (w *LedgerWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	switch msg.Kind {
	case amqp.KindOrder:
		return w.exportOrder(ctx, msg.ID)
	case amqp.KindExpense:
		return w.exportExpense(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
}

// ProcessPending exports records that never got a queue message, e.g. because
// the broker was down when they were saved. Failures are logged and skipped
// so one bad record cannot stall the batch.
func (w *LedgerWorker) ProcessPending(ctx context.Context) error {
	orderIDs, err := w.store.PendingLedgerOrders(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("pending orders: %w", err)
	}
	expenseIDs, err := w.store.PendingLedgerExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("pending expenses: %w", err)
	}

	if len(orderIDs) == 0 && len(expenseIDs) == 0 {
		return nil
	}
	slog.InfoContext(ctx, "Processing pending ledger records",
		"orders", len(orderIDs),
		"expenses", len(expenseIDs))

	for _, id := range orderIDs {
		if err := w.exportOrder(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export order", "id", id, "error", err)
		}
	}
	for _, id := range expenseIDs {
		if err := w.exportExpense(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", id, "error", err)
		}
	}
	return nil
}

func (w *LedgerWorker) exportOrder(ctx context.Context, id int64) error {
	o, err := w.store.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("get order %d: %w", id, err)
	}

	ref, err := w.ledger.AppendOrder(ctx, o)
	if err != nil {
		if markErr := w.store.MarkOrderSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark order sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append order %d: %w", id, err)
	}

	if err := w.store.MarkOrderSynced(ctx, id); err != nil {
		// The row is written; losing the mark only means a duplicate later.
		slog.ErrorContext(ctx, "Failed to mark order synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Order exported to ledger", "id", id, "row", ref)
	return nil
}

func (w *LedgerWorker) exportExpense(ctx context.Context, id int64) error {
	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}

	ref, err := w.ledger.AppendExpense(ctx, e)
	if err != nil {
		if markErr := w.store.MarkExpenseSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark expense sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append expense %d: %w", id, err)
	}

	if err := w.store.MarkExpenseSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark expense synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Expense exported to ledger", "id", id, "row", ref)
	return nil
}
