package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pacaprints/internal/core"
)

func (r *Repository) CreateProduct(ctx context.Context, p core.Product) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (sku, name) VALUES (?, ?)`, p.SKU, p.Name)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product id: %w", err)
	}
	return id, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, sku, name FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	var p core.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sku, name FROM products WHERE id = ?`, id).Scan(&p.ID, &p.SKU, &p.Name)
	if err == sql.ErrNoRows {
		return core.Product{}, ErrNotFound
	}
	if err != nil {
		return core.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// UpsertRecipeLine sets the per-unit quantity of a stock item in a
// product's bill of materials.
func (r *Repository) UpsertRecipeLine(ctx context.Context, line core.RecipeLine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recipe_lines (product_id, item_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT (product_id, item_id) DO UPDATE SET quantity = excluded.quantity`,
		line.ProductID, line.ItemID, line.Quantity)
	if err != nil {
		return fmt.Errorf("upsert recipe line: %w", err)
	}
	return nil
}

func (r *Repository) DeleteRecipeLine(ctx context.Context, productID, itemID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_lines WHERE product_id = ? AND item_id = ?`, productID, itemID)
	if err != nil {
		return fmt.Errorf("delete recipe line: %w", err)
	}
	return nil
}

func (r *Repository) ListRecipeLines(ctx context.Context, productID int64) ([]core.RecipeLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, item_id, quantity
		FROM recipe_lines WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}
	defer rows.Close()

	var lines []core.RecipeLine
	for rows.Next() {
		var l core.RecipeLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ItemID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan recipe line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// RecipeUnitCost estimates the material cost of producing one unit of the
// product at current FIFO-front prices. This is the margin-view estimate;
// the Finance view's profit never includes it (COGS is excluded there).
// Items with no open batches contribute zero.
func (r *Repository) RecipeUnitCost(ctx context.Context, productID int64) (core.Money, error) {
	lines, err := r.ListRecipeLines(ctx, productID)
	if err != nil {
		return core.Money{}, err
	}
	var cost float64
	for _, l := range lines {
		unit, err := r.FrontUnitCost(ctx, l.ItemID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return core.Money{}, err
		}
		cost += l.Quantity * float64(unit.Pence)
	}
	return core.Money{Pence: int64(cost + 0.5)}, nil
}
