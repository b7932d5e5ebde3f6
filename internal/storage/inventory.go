package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pacaprints/internal/core"
)

func (r *Repository) CreateStockItem(ctx context.Context, item core.StockItem) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_items (name, unit, reorder_level) VALUES (?, ?, ?)`,
		item.Name, item.Unit, item.ReorderLevel)
	if err != nil {
		return 0, fmt.Errorf("create stock item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stock item id: %w", err)
	}
	return id, nil
}

func (r *Repository) GetStockItem(ctx context.Context, id int64) (core.StockItem, error) {
	var item core.StockItem
	err := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.name, i.unit, i.reorder_level,
		       COALESCE((SELECT SUM(b.remaining) FROM stock_batches b WHERE b.item_id = i.id), 0)
		FROM stock_items i WHERE i.id = ?`, id).
		Scan(&item.ID, &item.Name, &item.Unit, &item.ReorderLevel, &item.OnHand)
	if err == sql.ErrNoRows {
		return core.StockItem{}, ErrNotFound
	}
	if err != nil {
		return core.StockItem{}, fmt.Errorf("get stock item %d: %w", id, err)
	}
	return item, nil
}

// ListStockItems returns every item with its derived on-hand quantity.
func (r *Repository) ListStockItems(ctx context.Context) ([]core.StockItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.name, i.unit, i.reorder_level,
		       COALESCE(SUM(b.remaining), 0) AS on_hand
		FROM stock_items i
		LEFT JOIN stock_batches b ON b.item_id = i.id
		GROUP BY i.id, i.name, i.unit, i.reorder_level
		ORDER BY i.name`)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()

	var items []core.StockItem
	for rows.Next() {
		var item core.StockItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.ReorderLevel, &item.OnHand); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateReorderLevel backs the inline reorder-level edit on the inventory page.
func (r *Repository) UpdateReorderLevel(ctx context.Context, id int64, level float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stock_items SET reorder_level = ? WHERE id = ?`, level, id)
	if err != nil {
		return fmt.Errorf("update reorder level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddStockBatch records a received batch of stock at a unit cost.
func (r *Repository) AddStockBatch(ctx context.Context, b core.StockBatch) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_batches (item_id, received_on, quantity, remaining, unit_cost_pence)
		VALUES (?, ?, ?, ?, ?)`,
		b.ItemID, b.ReceivedOn.ISO(), b.Quantity, b.Quantity, b.UnitCost.Pence)
	if err != nil {
		return 0, fmt.Errorf("add stock batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stock batch id: %w", err)
	}
	return id, nil
}

// ConsumeStock depletes an item's batches FIFO (oldest received first) and
// returns the blended cost of the consumed quantity in pence. The whole
// depletion runs in one transaction; if on-hand stock is insufficient the
// transaction rolls back and ErrInsufficientStock is returned.
func (r *Repository) ConsumeStock(ctx context.Context, itemID int64, qty float64) (costPence int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cost, err := consumeBatches(ctx, tx, itemID, qty)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	costPence = int64(cost + 0.5) // half-up to whole pence
	slog.InfoContext(ctx, "Stock consumed",
		"item_id", itemID,
		"quantity", qty,
		"cost_pence", costPence)
	return costPence, nil
}

// consumeBatches depletes one item's batches FIFO inside the caller's
// transaction and returns the exact (unrounded) cost in pence.
func consumeBatches(ctx context.Context, tx *sql.Tx, itemID int64, qty float64) (float64, error) {
	if qty <= 0 {
		return 0, core.ErrInvalidQuantity
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, remaining, unit_cost_pence
		FROM stock_batches
		WHERE item_id = ? AND remaining > 0
		ORDER BY received_on, id`, itemID)
	if err != nil {
		return 0, fmt.Errorf("select batches: %w", err)
	}

	type depletion struct {
		id           int64
		newRemaining float64
	}
	var (
		need       = qty
		cost       float64
		depletions []depletion
	)
	for rows.Next() && need > 0 {
		var (
			id        int64
			remaining float64
			unitCost  int64
		)
		if err := rows.Scan(&id, &remaining, &unitCost); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan batch: %w", err)
		}
		take := need
		if take > remaining {
			take = remaining
		}
		cost += take * float64(unitCost)
		need -= take
		depletions = append(depletions, depletion{id: id, newRemaining: remaining - take})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate batches: %w", err)
	}

	if need > 1e-9 {
		return 0, fmt.Errorf("item %d short by %.3f: %w", itemID, need, ErrInsufficientStock)
	}

	for _, d := range depletions {
		if _, err := tx.ExecContext(ctx,
			`UPDATE stock_batches SET remaining = ? WHERE id = ?`, d.newRemaining, d.id); err != nil {
			return 0, fmt.Errorf("deplete batch %d: %w", d.id, err)
		}
	}
	return cost, nil
}

// FrontUnitCost returns the unit cost of the oldest open batch, the price
// the next consumption will pay. Used for recipe cost estimates.
func (r *Repository) FrontUnitCost(ctx context.Context, itemID int64) (core.Money, error) {
	var pence int64
	err := r.db.QueryRowContext(ctx, `
		SELECT unit_cost_pence FROM stock_batches
		WHERE item_id = ? AND remaining > 0
		ORDER BY received_on, id LIMIT 1`, itemID).Scan(&pence)
	if err == sql.ErrNoRows {
		return core.Money{}, ErrNotFound
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("front unit cost: %w", err)
	}
	return core.Money{Pence: pence}, nil
}

// LowStockItems lists items at or below their reorder level.
func (r *Repository) LowStockItems(ctx context.Context) ([]core.StockItem, error) {
	items, err := r.ListStockItems(ctx)
	if err != nil {
		return nil, err
	}
	var low []core.StockItem
	for _, item := range items {
		if item.OnHand <= item.ReorderLevel {
			low = append(low, item)
		}
	}
	return low, nil
}
