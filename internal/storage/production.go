package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ProduceOrder consumes the order's recipe from stock FIFO and records the
// resulting cost of goods on the order, all in one transaction. Each recipe
// line is depleted by line quantity times the order quantity. Any shortfall
// rolls the whole production back with ErrInsufficientStock.
func (r *Repository) ProduceOrder(ctx context.Context, orderID int64) (cogsPence int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var (
		productID int64
		quantity  int64
		produced  int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT product_id, quantity, produced FROM orders WHERE id = ?`, orderID).
		Scan(&productID, &quantity, &produced)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if produced != 0 {
		return 0, fmt.Errorf("order %d already produced", orderID)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT item_id, quantity FROM recipe_lines WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return 0, fmt.Errorf("load recipe: %w", err)
	}
	type line struct {
		itemID int64
		qty    float64
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.itemID, &l.qty); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan recipe line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate recipe: %w", err)
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("product %d has no recipe", productID)
	}

	var cost float64
	for _, l := range lines {
		c, err := consumeBatches(ctx, tx, l.itemID, l.qty*float64(quantity))
		if err != nil {
			return 0, fmt.Errorf("consume item %d: %w", l.itemID, err)
		}
		cost += c
	}

	cogsPence = int64(cost + 0.5)
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET produced = 1, cogs_pence = ? WHERE id = ?`, cogsPence, orderID); err != nil {
		return 0, fmt.Errorf("mark produced: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Order produced",
		"order_id", orderID,
		"product_id", productID,
		"quantity", quantity,
		"cogs_pence", cogsPence)
	return cogsPence, nil
}
