package services

import (
	"context"
	"fmt"
	"time"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

// FinanceStore is the aggregate persistence the finance view needs.
type FinanceStore interface {
	FinanceSettings(ctx context.Context) (finance.Settings, error)
	SaveFinanceSettings(ctx context.Context, s finance.Settings) error
	OrdersSummary(ctx context.Context, from, toExclusive core.Date, platform string) (finance.OrdersSummary, error)
	SumExpenses(ctx context.Context, from, toExclusive core.Date) (int64, error)
	SumMiles(ctx context.Context, from, toExclusive core.Date) (float64, error)
	MonthlyExpenseTotals(ctx context.Context, from, toExclusive core.Date) ([]core.MonthTotal, error)
}

// Overview is everything the finance page renders for one tax year.
type Overview struct {
	Year     finance.TaxYear
	Settings finance.Settings
	Figures  finance.Figures
	Monthly  []core.MonthTotal
}

// FinanceService aggregates orders, expenses and mileage into the tax-year
// finance view.
type FinanceService struct {
	store FinanceStore
	now   func() time.Time
}

func NewFinanceService(store FinanceStore) *FinanceService {
	return &FinanceService{store: store, now: time.Now}
}

// CurrentTaxYear resolves today's tax year (6 April boundary).
func (s *FinanceService) CurrentTaxYear() finance.TaxYear {
	return finance.CurrentTaxYear(s.now())
}

// Overview computes the full finance view for the tax year starting on
// 6 April of startYear. Values are pounds; rounding is left to the caller.
func (s *FinanceService) Overview(ctx context.Context, startYear int) (Overview, error) {
	year := finance.TaxYear{StartYear: startYear}
	fromT, toT := year.Range()
	from, to := core.Date{Time: fromT}, core.Date{Time: toT}

	settings, err := s.store.FinanceSettings(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load settings: %w", err)
	}

	sum, err := s.store.OrdersSummary(ctx, from, to, "")
	if err != nil {
		return Overview{}, fmt.Errorf("orders summary: %w", err)
	}

	expensesPence, err := s.store.SumExpenses(ctx, from, to)
	if err != nil {
		return Overview{}, fmt.Errorf("sum expenses: %w", err)
	}

	miles, err := s.store.SumMiles(ctx, from, to)
	if err != nil {
		return Overview{}, fmt.Errorf("sum miles: %w", err)
	}

	monthly, err := s.store.MonthlyExpenseTotals(ctx, from, to)
	if err != nil {
		return Overview{}, fmt.Errorf("monthly totals: %w", err)
	}

	figures := finance.Aggregate(sum, float64(expensesPence)/100, miles, settings)

	return Overview{
		Year:     year,
		Settings: settings,
		Figures:  figures,
		Monthly:  monthly,
	}, nil
}

func (s *FinanceService) Settings(ctx context.Context) (finance.Settings, error) {
	return s.store.FinanceSettings(ctx)
}

// SaveSettings validates and persists the bookkeeping knobs.
func (s *FinanceService) SaveSettings(ctx context.Context, set finance.Settings) error {
	if set.OwnersCount < 1 {
		return fmt.Errorf("owners count must be at least 1")
	}
	if set.EstTaxRate < 0 || set.EstTaxRate > 1 {
		return fmt.Errorf("estimated tax rate must be between 0 and 1")
	}
	if set.MileageRateFirst < 0 || set.MileageRateAfter < 0 || set.MileageThreshold < 0 {
		return fmt.Errorf("mileage rates and threshold must not be negative")
	}
	return s.store.SaveFinanceSettings(ctx, set)
}
