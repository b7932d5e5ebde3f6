package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

type fakeFinanceStore struct {
	settings      finance.Settings
	summary       finance.OrdersSummary
	expensesPence int64
	miles         float64
	monthly       []core.MonthTotal

	summaryErr error

	gotFrom, gotTo core.Date
	saved          *finance.Settings
}

func (f *fakeFinanceStore) FinanceSettings(ctx context.Context) (finance.Settings, error) {
	return f.settings, nil
}

func (f *fakeFinanceStore) SaveFinanceSettings(ctx context.Context, s finance.Settings) error {
	f.saved = &s
	return nil
}

func (f *fakeFinanceStore) OrdersSummary(ctx context.Context, from, toExclusive core.Date, platform string) (finance.OrdersSummary, error) {
	f.gotFrom, f.gotTo = from, toExclusive
	return f.summary, f.summaryErr
}

func (f *fakeFinanceStore) SumExpenses(ctx context.Context, from, toExclusive core.Date) (int64, error) {
	return f.expensesPence, nil
}

func (f *fakeFinanceStore) SumMiles(ctx context.Context, from, toExclusive core.Date) (float64, error) {
	return f.miles, nil
}

func (f *fakeFinanceStore) MonthlyExpenseTotals(ctx context.Context, from, toExclusive core.Date) ([]core.MonthTotal, error) {
	return f.monthly, nil
}

func TestFinanceServiceOverview(t *testing.T) {
	store := &fakeFinanceStore{
		settings:      finance.DefaultSettings(),
		summary:       finance.OrdersSummary{GrossRevenue: 10000, PlatformFees: 1000, Payout: 9000},
		expensesPence: 150000, // £1500
		miles:         11000,
		monthly: []core.MonthTotal{
			{Month: "2024-04", Total: core.Money{Pence: 50000}},
			{Month: "2024-05", Total: core.Money{Pence: 100000}},
		},
	}
	svc := NewFinanceService(store)

	ov, err := svc.Overview(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, "2024-25", ov.Year.Label())
	assert.Equal(t, "2024-04-06", store.gotFrom.ISO())
	assert.Equal(t, "2025-04-06", store.gotTo.ISO())

	// 10000 miles at 0.45 plus 1000 at 0.25 = 4750.
	assert.InDelta(t, 4750, ov.Figures.MileageClaim, 1e-9)
	// 10000 - 1000 - (1500 + 4750) = 2750, split two ways.
	assert.InDelta(t, 2750, ov.Figures.Profit, 1e-9)
	assert.InDelta(t, 1375, ov.Figures.PerOwner, 1e-9)
	assert.InDelta(t, 275, ov.Figures.EstTaxEach, 1e-9)
	assert.InDelta(t, 550, ov.Figures.EstTaxTotal, 1e-9)

	assert.Len(t, ov.Monthly, 2)
}

func TestFinanceServiceOverviewStoreError(t *testing.T) {
	store := &fakeFinanceStore{
		settings:   finance.DefaultSettings(),
		summaryErr: errors.New("db locked"),
	}
	svc := NewFinanceService(store)

	_, err := svc.Overview(context.Background(), 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders summary")
}

func TestFinanceServiceCurrentTaxYear(t *testing.T) {
	store := &fakeFinanceStore{settings: finance.DefaultSettings()}
	svc := NewFinanceService(store)

	svc.now = func() time.Time { return time.Date(2025, 4, 5, 23, 59, 0, 0, time.UTC) }
	assert.Equal(t, 2024, svc.CurrentTaxYear().StartYear)

	svc.now = func() time.Time { return time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, 2025, svc.CurrentTaxYear().StartYear)
}

func TestFinanceServiceSaveSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*finance.Settings)
		wantErr bool
	}{
		{"valid defaults", func(s *finance.Settings) {}, false},
		{"zero owners", func(s *finance.Settings) { s.OwnersCount = 0 }, true},
		{"negative tax rate", func(s *finance.Settings) { s.EstTaxRate = -0.1 }, true},
		{"tax rate above one", func(s *finance.Settings) { s.EstTaxRate = 1.5 }, true},
		{"negative mileage rate", func(s *finance.Settings) { s.MileageRateAfter = -0.25 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeFinanceStore{settings: finance.DefaultSettings()}
			svc := NewFinanceService(store)

			set := finance.DefaultSettings()
			tt.mutate(&set)

			err := svc.SaveSettings(context.Background(), set)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, store.saved)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, store.saved)
				assert.Equal(t, set, *store.saved)
			}
		})
	}
}
