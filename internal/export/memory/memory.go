// Package memory is an in-process ledger writer for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pacaprints/internal/core"
	"pacaprints/internal/export"
)

type Writer struct {
	mu       sync.Mutex
	Orders   []core.Order
	Expenses []core.Expense

	// FailNext makes the next append return an error, for retry tests.
	FailNext bool
}

var _ export.LedgerWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendOrder(ctx context.Context, o core.Order) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailNext {
		w.FailNext = false
		return "", fmt.Errorf("memory ledger: simulated failure")
	}
	w.Orders = append(w.Orders, o)
	return fmt.Sprintf("orders:%d", len(w.Orders)), nil
}

func (w *Writer) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailNext {
		w.FailNext = false
		return "", fmt.Errorf("memory ledger: simulated failure")
	}
	w.Expenses = append(w.Expenses, e)
	return fmt.Sprintf("expenses:%d", len(w.Expenses)), nil
}
