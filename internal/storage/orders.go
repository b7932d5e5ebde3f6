package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

// CreateOrder inserts a sales order and returns its id. The row starts in
// sync_status 'pending' so the ledger worker picks it up.
func (r *Repository) CreateOrder(ctx context.Context, o core.Order) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (placed_on, platform, reference, product_id, quantity,
		                    gross_pence, fees_pence, payout_pence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.PlacedOn.ISO(), o.Platform, o.Reference, o.ProductID, o.Quantity,
		o.Gross.Pence, o.Fees.Pence, o.Payout.Pence)
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order id: %w", err)
	}

	slog.InfoContext(ctx, "Order saved",
		"id", id,
		"reference", o.Reference,
		"platform", o.Platform,
		"gross_pence", o.Gross.Pence)
	return id, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (core.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, placed_on, platform, reference, product_id, quantity,
		       gross_pence, fees_pence, payout_pence, printed, shipped, produced, cogs_pence
		FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return core.Order{}, ErrNotFound
	}
	if err != nil {
		return core.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

// ListOrders returns one page of orders for the query's tax year, newest
// first. Search matches the reference or platform.
func (r *Repository) ListOrders(ctx context.Context, q core.ListQuery) ([]core.Order, error) {
	q = q.Normalized()
	from, to := finance.TaxYear{StartYear: q.TaxYearStart}.Range()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, placed_on, platform, reference, product_id, quantity,
		       gross_pence, fees_pence, payout_pence, printed, shipped, produced, cogs_pence
		FROM orders
		WHERE placed_on >= ? AND placed_on < ?
		  AND (? = '' OR reference LIKE '%' || ? || '%' OR platform LIKE '%' || ? || '%')
		ORDER BY placed_on DESC, id DESC
		LIMIT ? OFFSET ?`,
		from.Format("2006-01-02"), to.Format("2006-01-02"),
		q.Search, q.Search, q.Search,
		q.PageSize, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []core.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SetOrderFlag updates a boolean order flag ("printed" or "shipped") and
// returns the previous value so the caller can render the exact inverse
// transition if a later step fails.
func (r *Repository) SetOrderFlag(ctx context.Context, id int64, flag string, value bool) (prev bool, err error) {
	var column string
	switch flag {
	case "printed":
		column = "printed"
	case "shipped":
		column = "shipped"
	default:
		return false, fmt.Errorf("unknown order flag %q", flag)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var prevInt int64
	if err := tx.QueryRowContext(ctx, `SELECT `+column+` FROM orders WHERE id = ?`, id).Scan(&prevInt); err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("read order flag: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET `+column+` = ? WHERE id = ?`, boolToInt(value), id); err != nil {
		return false, fmt.Errorf("update order flag: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return prevInt != 0, nil
}

// OrdersSummary sums gross revenue, platform fees and payout over the
// half-open range [from, toExclusive). Platform filters when non-empty.
func (r *Repository) OrdersSummary(ctx context.Context, from, toExclusive core.Date, platform string) (finance.OrdersSummary, error) {
	var gross, fees, payout sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(gross_pence), SUM(fees_pence), SUM(payout_pence)
		FROM orders
		WHERE placed_on >= ? AND placed_on < ?
		  AND (? = '' OR platform = ?)`,
		from.ISO(), toExclusive.ISO(), platform, platform).Scan(&gross, &fees, &payout)
	if err != nil {
		return finance.OrdersSummary{}, fmt.Errorf("orders summary: %w", err)
	}
	return finance.OrdersSummary{
		GrossRevenue: float64(gross.Int64) / 100,
		PlatformFees: float64(fees.Int64) / 100,
		Payout:       float64(payout.Int64) / 100,
	}, nil
}

// PendingLedgerOrders lists orders awaiting ledger export, oldest first.
func (r *Repository) PendingLedgerOrders(ctx context.Context, limit int) ([]int64, error) {
	return r.pendingIDs(ctx, "orders", limit)
}

func (r *Repository) MarkOrderSynced(ctx context.Context, id int64) error {
	return r.markSync(ctx, "orders", id, "synced")
}

func (r *Repository) MarkOrderSyncError(ctx context.Context, id int64) error {
	return r.markSync(ctx, "orders", id, "error")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (core.Order, error) {
	var (
		o        core.Order
		placedOn string
		printed  int64
		shipped  int64
		produced int64
	)
	err := row.Scan(&o.ID, &placedOn, &o.Platform, &o.Reference, &o.ProductID, &o.Quantity,
		&o.Gross.Pence, &o.Fees.Pence, &o.Payout.Pence, &printed, &shipped, &produced, &o.COGS.Pence)
	if err != nil {
		return core.Order{}, err
	}
	d, err := core.ParseDate(placedOn)
	if err != nil {
		return core.Order{}, fmt.Errorf("order %d placed_on %q: %w", o.ID, placedOn, err)
	}
	o.PlacedOn = d
	o.Printed = printed != 0
	o.Shipped = shipped != 0
	o.Produced = produced != 0
	return o, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (r *Repository) pendingIDs(ctx context.Context, table string, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) markSync(ctx context.Context, table string, id int64, status string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = ? WHERE id = ?`, status, id); err != nil {
		return fmt.Errorf("mark %s %d %s: %w", table, id, status, err)
	}
	return nil
}
