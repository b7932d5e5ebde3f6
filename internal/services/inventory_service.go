package services

import (
	"context"

	"pacaprints/internal/core"
)

// InventoryStore is the stock persistence the service needs.
type InventoryStore interface {
	CreateStockItem(ctx context.Context, item core.StockItem) (int64, error)
	GetStockItem(ctx context.Context, id int64) (core.StockItem, error)
	ListStockItems(ctx context.Context) ([]core.StockItem, error)
	UpdateReorderLevel(ctx context.Context, id int64, level float64) error
	AddStockBatch(ctx context.Context, b core.StockBatch) (int64, error)
	LowStockItems(ctx context.Context) ([]core.StockItem, error)
}

// InventoryService manages raw-material items and their batches.
type InventoryService struct {
	store InventoryStore
}

func NewInventoryService(store InventoryStore) *InventoryService {
	return &InventoryService{store: store}
}

func (s *InventoryService) CreateItem(ctx context.Context, item core.StockItem) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateStockItem(ctx, item)
}

func (s *InventoryService) GetItem(ctx context.Context, id int64) (core.StockItem, error) {
	return s.store.GetStockItem(ctx, id)
}

func (s *InventoryService) ListItems(ctx context.Context) ([]core.StockItem, error) {
	return s.store.ListStockItems(ctx)
}

func (s *InventoryService) SetReorderLevel(ctx context.Context, id int64, level float64) error {
	if level < 0 {
		return core.ErrInvalidQuantity
	}
	return s.store.UpdateReorderLevel(ctx, id, level)
}

// AddBatch records stock received outside a purchase order, e.g. an opening
// balance or a cash-and-carry buy.
func (s *InventoryService) AddBatch(ctx context.Context, b core.StockBatch) (int64, error) {
	if err := b.ReceivedOn.Validate(); err != nil {
		return 0, err
	}
	if b.Quantity <= 0 {
		return 0, core.ErrInvalidQuantity
	}
	if b.UnitCost.Pence < 0 {
		return 0, core.ErrInvalidAmount
	}
	return s.store.AddStockBatch(ctx, b)
}

func (s *InventoryService) LowStock(ctx context.Context) ([]core.StockItem, error) {
	return s.store.LowStockItems(ctx)
}
