package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pacaprints/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestConsumeStockFIFO(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	itemID, err := repo.CreateStockItem(ctx, core.StockItem{Name: "PLA filament", Unit: "g", ReorderLevel: 500})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	// Older batch is cheaper; FIFO must take it first.
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: itemID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 100, UnitCost: core.Money{Pence: 2},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: itemID, ReceivedOn: core.NewDate(2024, 6, 1), Quantity: 100, UnitCost: core.Money{Pence: 3},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}

	// 150 units: 100 @2p from the old batch, 50 @3p from the new one.
	cost, err := repo.ConsumeStock(ctx, itemID, 150)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if cost != 100*2+50*3 {
		t.Fatalf("cost = %d pence, want 350", cost)
	}

	item, err := repo.GetStockItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.OnHand != 50 {
		t.Fatalf("on hand = %v, want 50", item.OnHand)
	}

	// The FIFO front is now the newer batch.
	front, err := repo.FrontUnitCost(ctx, itemID)
	if err != nil {
		t.Fatalf("front unit cost: %v", err)
	}
	if front.Pence != 3 {
		t.Fatalf("front unit cost = %d, want 3", front.Pence)
	}
}

func TestConsumeStockInsufficient(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	itemID, err := repo.CreateStockItem(ctx, core.StockItem{Name: "Vinyl", Unit: "sheet"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: itemID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 10, UnitCost: core.Money{Pence: 100},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}

	if _, err := repo.ConsumeStock(ctx, itemID, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Failed consumption must not deplete anything.
	item, err := repo.GetStockItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.OnHand != 10 {
		t.Fatalf("on hand = %v, want 10 after rollback", item.OnHand)
	}
}

func TestOrdersSummaryHalfOpenRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	productID, err := repo.CreateProduct(ctx, core.Product{SKU: "MUG-01", Name: "Alpaca mug"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	add := func(day core.Date, gross int64) {
		t.Helper()
		_, err := repo.CreateOrder(ctx, core.Order{
			PlacedOn: day, Platform: "etsy", Reference: "R-" + day.ISO(),
			ProductID: productID, Quantity: 1,
			Gross: core.Money{Pence: gross}, Fees: core.Money{Pence: gross / 10},
			Payout: core.Money{Pence: gross - gross/10},
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	add(core.NewDate(2024, 4, 5), 1000)  // day before the tax year: excluded
	add(core.NewDate(2024, 4, 6), 2000)  // first day: included
	add(core.NewDate(2025, 4, 5), 3000)  // last day: included
	add(core.NewDate(2025, 4, 6), 4000)  // toExclusive: excluded

	sum, err := repo.OrdersSummary(ctx, core.NewDate(2024, 4, 6), core.NewDate(2025, 4, 6), "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.GrossRevenue != 50 { // (2000+3000) pence in pounds
		t.Fatalf("gross = %v, want 50", sum.GrossRevenue)
	}

	// Platform filter
	sum, err = repo.OrdersSummary(ctx, core.NewDate(2024, 4, 6), core.NewDate(2025, 4, 6), "ebay")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.GrossRevenue != 0 {
		t.Fatalf("gross for ebay = %v, want 0", sum.GrossRevenue)
	}
}

func TestSetOrderFlagReturnsPrevious(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	productID, _ := repo.CreateProduct(ctx, core.Product{SKU: "TEE-01", Name: "Alpaca tee"})
	id, err := repo.CreateOrder(ctx, core.Order{
		PlacedOn: core.NewDate(2024, 7, 1), Platform: "etsy", Reference: "R-1",
		ProductID: productID, Quantity: 1, Gross: core.Money{Pence: 100},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	prev, err := repo.SetOrderFlag(ctx, id, "printed", true)
	if err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if prev {
		t.Fatalf("expected previous printed=false")
	}
	prev, err = repo.SetOrderFlag(ctx, id, "printed", false)
	if err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if !prev {
		t.Fatalf("expected previous printed=true")
	}

	if _, err := repo.SetOrderFlag(ctx, id, "paid", true); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
	if _, err := repo.SetOrderFlag(ctx, 9999, "printed", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReceivePurchaseOrderBooksExpenseAndBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	itemID, _ := repo.CreateStockItem(ctx, core.StockItem{Name: "Mug blank", Unit: "pcs"})
	poID, err := repo.CreatePurchaseOrder(ctx, core.PurchaseOrder{
		OrderedOn: core.NewDate(2024, 8, 1), Vendor: "BlanksRUs",
		ItemID: itemID, Quantity: 20, UnitCost: core.Money{Pence: 150},
	})
	if err != nil {
		t.Fatalf("create purchase order: %v", err)
	}

	expenseID, err := repo.ReceivePurchaseOrder(ctx, poID, core.NewDate(2024, 8, 10))
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	e, err := repo.GetExpense(ctx, expenseID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if e.Amount.Pence != 20*150 {
		t.Fatalf("expense amount = %d, want 3000", e.Amount.Pence)
	}
	if e.Category != "Materials" {
		t.Fatalf("expense category = %s", e.Category)
	}

	item, err := repo.GetStockItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.OnHand != 20 {
		t.Fatalf("on hand = %v, want 20", item.OnHand)
	}

	// Receiving twice is a conflict.
	if _, err := repo.ReceivePurchaseOrder(ctx, poID, core.NewDate(2024, 8, 11)); err == nil {
		t.Fatalf("expected error on double receive")
	}
}

func TestProduceOrderConsumesRecipe(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	filamentID, _ := repo.CreateStockItem(ctx, core.StockItem{Name: "PLA filament", Unit: "g"})
	boxID, _ := repo.CreateStockItem(ctx, core.StockItem{Name: "Gift box", Unit: "pcs"})
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: filamentID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 1000, UnitCost: core.Money{Pence: 2},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: boxID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 10, UnitCost: core.Money{Pence: 40},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}

	productID, _ := repo.CreateProduct(ctx, core.Product{SKU: "FIG-01", Name: "Alpaca figurine"})
	if err := repo.UpsertRecipeLine(ctx, core.RecipeLine{ProductID: productID, ItemID: filamentID, Quantity: 25}); err != nil {
		t.Fatalf("recipe line: %v", err)
	}
	if err := repo.UpsertRecipeLine(ctx, core.RecipeLine{ProductID: productID, ItemID: boxID, Quantity: 1}); err != nil {
		t.Fatalf("recipe line: %v", err)
	}

	orderID, err := repo.CreateOrder(ctx, core.Order{
		PlacedOn: core.NewDate(2024, 6, 1), Platform: "etsy", Reference: "R-1",
		ProductID: productID, Quantity: 3, Gross: core.Money{Pence: 4500},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// 3 units: 75 g filament @2p plus 3 boxes @40p.
	cogs, err := repo.ProduceOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if cogs != 75*2+3*40 {
		t.Fatalf("cogs = %d pence, want 270", cogs)
	}

	o, err := repo.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !o.Produced || o.COGS.Pence != cogs {
		t.Fatalf("order not updated: produced=%v cogs=%d", o.Produced, o.COGS.Pence)
	}

	if _, err := repo.ProduceOrder(ctx, orderID); err == nil {
		t.Fatalf("expected error producing twice")
	}
}

func TestProduceOrderRollsBackOnShortage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	filamentID, _ := repo.CreateStockItem(ctx, core.StockItem{Name: "PLA filament", Unit: "g"})
	boxID, _ := repo.CreateStockItem(ctx, core.StockItem{Name: "Gift box", Unit: "pcs"})
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: filamentID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 1000, UnitCost: core.Money{Pence: 2},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}
	// Only one box on hand; the order needs two.
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{
		ItemID: boxID, ReceivedOn: core.NewDate(2024, 5, 1), Quantity: 1, UnitCost: core.Money{Pence: 40},
	}); err != nil {
		t.Fatalf("add batch: %v", err)
	}

	productID, _ := repo.CreateProduct(ctx, core.Product{SKU: "FIG-01", Name: "Alpaca figurine"})
	_ = repo.UpsertRecipeLine(ctx, core.RecipeLine{ProductID: productID, ItemID: filamentID, Quantity: 25})
	_ = repo.UpsertRecipeLine(ctx, core.RecipeLine{ProductID: productID, ItemID: boxID, Quantity: 1})

	orderID, _ := repo.CreateOrder(ctx, core.Order{
		PlacedOn: core.NewDate(2024, 6, 1), Platform: "etsy", Reference: "R-2",
		ProductID: productID, Quantity: 2, Gross: core.Money{Pence: 3000},
	})

	if _, err := repo.ProduceOrder(ctx, orderID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Filament consumed for line one must be restored by the rollback.
	item, err := repo.GetStockItem(ctx, filamentID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.OnHand != 1000 {
		t.Fatalf("filament on hand = %v, want 1000 after rollback", item.OnHand)
	}
}

func TestFinanceSettingsDefaultsAndRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.FinanceSettings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.OwnersCount != 2 || s.EstTaxRate != 0.20 || s.MileageThreshold != 10000 {
		t.Fatalf("expected defaults, got %+v", s)
	}

	s.OwnersCount = 3
	s.EstTaxRate = 0.19
	if err := repo.SaveFinanceSettings(ctx, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err := repo.FinanceSettings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got.OwnersCount != 3 || got.EstTaxRate != 0.19 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestExpenseAndMileageRangeSums(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addExpense := func(d core.Date, pence int64) {
		t.Helper()
		_, err := repo.CreateExpense(ctx, core.Expense{
			SpentOn: d, Description: "x", Amount: core.Money{Pence: pence},
			Category: "Postage", Source: core.SourceBusiness,
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}
	addExpense(core.NewDate(2024, 4, 5), 111)
	addExpense(core.NewDate(2024, 4, 6), 200)
	addExpense(core.NewDate(2025, 4, 5), 300)
	addExpense(core.NewDate(2025, 4, 6), 999)

	total, err := repo.SumExpenses(ctx, core.NewDate(2024, 4, 6), core.NewDate(2025, 4, 6))
	if err != nil {
		t.Fatalf("sum expenses: %v", err)
	}
	if total != 500 {
		t.Fatalf("expenses total = %d, want 500", total)
	}

	if _, err := repo.CreateMileageLog(ctx, core.MileageLog{
		TraveledOn: core.NewDate(2024, 7, 1), Person: "Sam", Miles: 12.5,
	}); err != nil {
		t.Fatalf("create mileage: %v", err)
	}
	if _, err := repo.CreateMileageLog(ctx, core.MileageLog{
		TraveledOn: core.NewDate(2025, 4, 6), Person: "Sam", Miles: 99,
	}); err != nil {
		t.Fatalf("create mileage: %v", err)
	}

	miles, err := repo.SumMiles(ctx, core.NewDate(2024, 4, 6), core.NewDate(2025, 4, 6))
	if err != nil {
		t.Fatalf("sum miles: %v", err)
	}
	if miles != 12.5 {
		t.Fatalf("miles = %v, want 12.5", miles)
	}

	months, err := repo.MonthlyExpenseTotals(ctx, core.NewDate(2024, 4, 6), core.NewDate(2025, 4, 6))
	if err != nil {
		t.Fatalf("monthly totals: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("months = %d, want 2", len(months))
	}
	if months[0].Month != "2024-04" || months[0].Total.Pence != 200 {
		t.Fatalf("month[0] = %+v", months[0])
	}
	if months[1].Month != "2025-04" || months[1].Total.Pence != 300 {
		t.Fatalf("month[1] = %+v", months[1])
	}
}

func TestListOrdersQueryObject(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	productID, _ := repo.CreateProduct(ctx, core.Product{SKU: "STK-01", Name: "Sticker pack"})
	for i, ref := range []string{"ETSY-100", "ETSY-101", "EBAY-200"} {
		platform := "etsy"
		if i == 2 {
			platform = "ebay"
		}
		if _, err := repo.CreateOrder(ctx, core.Order{
			PlacedOn: core.NewDate(2024, 6, 10+i), Platform: platform, Reference: ref,
			ProductID: productID, Quantity: 1, Gross: core.Money{Pence: 500},
		}); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	q := core.ListQuery{TaxYearStart: 2024, Search: "ETSY"}
	orders, err := repo.ListOrders(ctx, q)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	// Newest first
	if orders[0].Reference != "ETSY-101" {
		t.Fatalf("first order = %s", orders[0].Reference)
	}

	// Paging
	q = core.ListQuery{TaxYearStart: 2024, PageSize: 2, Page: 2}
	orders, err = repo.ListOrders(ctx, q)
	if err != nil {
		t.Fatalf("list orders page 2: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("page 2 orders = %d, want 1", len(orders))
	}
}
