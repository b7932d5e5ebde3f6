package services

import (
	"context"

	"pacaprints/internal/core"
)

// CatalogStore is the product and recipe persistence the service needs.
type CatalogStore interface {
	CreateProduct(ctx context.Context, p core.Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (core.Product, error)
	ListProducts(ctx context.Context) ([]core.Product, error)
	UpsertRecipeLine(ctx context.Context, line core.RecipeLine) error
	DeleteRecipeLine(ctx context.Context, productID, itemID int64) error
	ListRecipeLines(ctx context.Context, productID int64) ([]core.RecipeLine, error)
	RecipeUnitCost(ctx context.Context, productID int64) (core.Money, error)
}

// CatalogService manages products and their bills of materials.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) CreateProduct(ctx context.Context, p core.Product) (int64, error) {
	if p.Name == "" || p.SKU == "" {
		return 0, core.ErrEmptyName
	}
	return s.store.CreateProduct(ctx, p)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) SetRecipeLine(ctx context.Context, line core.RecipeLine) error {
	if err := line.Validate(); err != nil {
		return err
	}
	return s.store.UpsertRecipeLine(ctx, line)
}

func (s *CatalogService) RemoveRecipeLine(ctx context.Context, productID, itemID int64) error {
	return s.store.DeleteRecipeLine(ctx, productID, itemID)
}

func (s *CatalogService) RecipeLines(ctx context.Context, productID int64) ([]core.RecipeLine, error) {
	return s.store.ListRecipeLines(ctx, productID)
}

// UnitCost estimates material cost per unit at current FIFO-front prices.
func (s *CatalogService) UnitCost(ctx context.Context, productID int64) (core.Money, error) {
	return s.store.RecipeUnitCost(ctx, productID)
}
