// Package export defines the outbound ports for the ledger spreadsheet.
package export

import (
	"context"

	"pacaprints/internal/core"
)

// LedgerWriter appends finished records to the external ledger. Implementations
// return a reference to the written row for logging.
type LedgerWriter interface {
	AppendOrder(ctx context.Context, o core.Order) (rowRef string, err error)
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
}
