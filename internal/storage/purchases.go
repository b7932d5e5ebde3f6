package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pacaprints/internal/core"
)

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po core.PurchaseOrder) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO purchase_orders (ordered_on, vendor, item_id, quantity, unit_cost_pence, status)
		VALUES (?, ?, ?, ?, ?, 'ordered')`,
		po.OrderedOn.ISO(), po.Vendor, po.ItemID, po.Quantity, po.UnitCost.Pence)
	if err != nil {
		return 0, fmt.Errorf("create purchase order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("purchase order id: %w", err)
	}
	return id, nil
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, id int64) (core.PurchaseOrder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, ordered_on, vendor, item_id, quantity, unit_cost_pence, status, received_on
		FROM purchase_orders WHERE id = ?`, id)
	po, err := scanPurchaseOrder(row)
	if err == sql.ErrNoRows {
		return core.PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return core.PurchaseOrder{}, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return po, nil
}

func (r *Repository) ListPurchaseOrders(ctx context.Context) ([]core.PurchaseOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ordered_on, vendor, item_id, quantity, unit_cost_pence, status, received_on
		FROM purchase_orders
		ORDER BY ordered_on DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var pos []core.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

// ReceivePurchaseOrder marks the purchase received, opens a stock batch for
// the delivered quantity and books the cost into the expense ledger under
// the Materials category, all in one transaction. Purchase cost lives in
// the expense ledger; the Finance view's profit excludes COGS for exactly
// that reason.
func (r *Repository) ReceivePurchaseOrder(ctx context.Context, id int64, receivedOn core.Date) (expenseID int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, ordered_on, vendor, item_id, quantity, unit_cost_pence, status, received_on
		FROM purchase_orders WHERE id = ?`, id)
	po, err := scanPurchaseOrder(row)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load purchase order %d: %w", id, err)
	}
	if po.Status == core.StatusReceived {
		return 0, fmt.Errorf("purchase order %d already received", id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE purchase_orders SET status = 'received', received_on = ? WHERE id = ?`,
		receivedOn.ISO(), id); err != nil {
		return 0, fmt.Errorf("mark received: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_batches (item_id, received_on, quantity, remaining, unit_cost_pence)
		VALUES (?, ?, ?, ?, ?)`,
		po.ItemID, receivedOn.ISO(), po.Quantity, po.Quantity, po.UnitCost.Pence); err != nil {
		return 0, fmt.Errorf("open stock batch: %w", err)
	}

	totalPence := int64(po.Quantity*float64(po.UnitCost.Pence) + 0.5)
	var itemName string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM stock_items WHERE id = ?`, po.ItemID).Scan(&itemName); err != nil {
		return 0, fmt.Errorf("stock item name: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (spent_on, description, amount_pence, category, vendor, paid_by, source_type)
		VALUES (?, ?, ?, 'Materials', ?, '', 'business')`,
		receivedOn.ISO(), fmt.Sprintf("PO #%d: %s", id, itemName), totalPence, po.Vendor)
	if err != nil {
		return 0, fmt.Errorf("book materials expense: %w", err)
	}
	expenseID, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Purchase order received",
		"id", id,
		"item_id", po.ItemID,
		"quantity", po.Quantity,
		"expense_id", expenseID,
		"total_pence", totalPence)
	return expenseID, nil
}

func scanPurchaseOrder(row rowScanner) (core.PurchaseOrder, error) {
	var (
		po         core.PurchaseOrder
		orderedOn  string
		status     string
		receivedOn sql.NullString
	)
	err := row.Scan(&po.ID, &orderedOn, &po.Vendor, &po.ItemID, &po.Quantity,
		&po.UnitCost.Pence, &status, &receivedOn)
	if err != nil {
		return core.PurchaseOrder{}, err
	}
	d, err := core.ParseDate(orderedOn)
	if err != nil {
		return core.PurchaseOrder{}, fmt.Errorf("purchase %d ordered_on %q: %w", po.ID, orderedOn, err)
	}
	po.OrderedOn = d
	po.Status = core.PurchaseStatus(status)
	if receivedOn.Valid && receivedOn.String != "" {
		rd, err := core.ParseDate(receivedOn.String)
		if err != nil {
			return core.PurchaseOrder{}, fmt.Errorf("purchase %d received_on %q: %w", po.ID, receivedOn.String, err)
		}
		po.ReceivedOn = rd
	}
	return po, nil
}
