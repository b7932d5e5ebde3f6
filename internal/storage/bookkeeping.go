package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (spent_on, description, amount_pence, category, vendor, paid_by, source_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SpentOn.ISO(), e.Description, e.Amount.Pence, e.Category, e.Vendor, e.PaidBy, string(e.Source), e.Notes)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_pence", e.Amount.Pence,
		"category", e.Category)
	return id, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, spent_on, description, amount_pence, category, vendor, paid_by, source_type, notes
		FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns expenses in the half-open range [from, toExclusive),
// oldest first.
func (r *Repository) ListExpenses(ctx context.Context, from, toExclusive core.Date) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, spent_on, description, amount_pence, category, vendor, paid_by, source_type, notes
		FROM expenses
		WHERE spent_on >= ? AND spent_on < ?
		ORDER BY spent_on, id`,
		from.ISO(), toExclusive.ISO())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// SumExpenses totals expense amounts over [from, toExclusive) in pence.
func (r *Repository) SumExpenses(ctx context.Context, from, toExclusive core.Date) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_pence) FROM expenses WHERE spent_on >= ? AND spent_on < ?`,
		from.ISO(), toExclusive.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total.Int64, nil
}

// MonthlyExpenseTotals returns per-month expense sums over the range,
// keyed "YYYY-MM" in ascending order.
func (r *Repository) MonthlyExpenseTotals(ctx context.Context, from, toExclusive core.Date) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(spent_on, 1, 7) AS month, SUM(amount_pence)
		FROM expenses
		WHERE spent_on >= ? AND spent_on < ?
		GROUP BY month ORDER BY month`,
		from.ISO(), toExclusive.ISO())
	if err != nil {
		return nil, fmt.Errorf("monthly expense totals: %w", err)
	}
	defer rows.Close()

	var totals []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total.Pence); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

func (r *Repository) CreateMileageLog(ctx context.Context, m core.MileageLog) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO mileage_logs (traveled_on, person, miles, start_location, end_location, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.TraveledOn.ISO(), m.Person, m.Miles, m.StartLocation, m.EndLocation, m.Notes)
	if err != nil {
		return 0, fmt.Errorf("create mileage log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mileage log id: %w", err)
	}
	return id, nil
}

// ListMileageLogs returns mileage records in [from, toExclusive), oldest first.
func (r *Repository) ListMileageLogs(ctx context.Context, from, toExclusive core.Date) ([]core.MileageLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, traveled_on, person, miles, start_location, end_location, notes
		FROM mileage_logs
		WHERE traveled_on >= ? AND traveled_on < ?
		ORDER BY traveled_on, id`,
		from.ISO(), toExclusive.ISO())
	if err != nil {
		return nil, fmt.Errorf("list mileage logs: %w", err)
	}
	defer rows.Close()

	var logs []core.MileageLog
	for rows.Next() {
		var (
			m          core.MileageLog
			traveledOn string
		)
		if err := rows.Scan(&m.ID, &traveledOn, &m.Person, &m.Miles,
			&m.StartLocation, &m.EndLocation, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan mileage log: %w", err)
		}
		d, err := core.ParseDate(traveledOn)
		if err != nil {
			return nil, fmt.Errorf("mileage %d traveled_on %q: %w", m.ID, traveledOn, err)
		}
		m.TraveledOn = d
		logs = append(logs, m)
	}
	return logs, rows.Err()
}

// SumMiles totals miles over [from, toExclusive).
func (r *Repository) SumMiles(ctx context.Context, from, toExclusive core.Date) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(miles) FROM mileage_logs WHERE traveled_on >= ? AND traveled_on < ?`,
		from.ISO(), toExclusive.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum miles: %w", err)
	}
	return total.Float64, nil
}

// FinanceSettings reads the settings row; a missing row yields the
// documented defaults.
func (r *Repository) FinanceSettings(ctx context.Context) (finance.Settings, error) {
	var s finance.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT owners_count, est_tax_rate, mileage_rate_first, mileage_rate_after, mileage_threshold
		FROM finance_settings WHERE id = 1`).
		Scan(&s.OwnersCount, &s.EstTaxRate, &s.MileageRateFirst, &s.MileageRateAfter, &s.MileageThreshold)
	if err == sql.ErrNoRows {
		return finance.DefaultSettings(), nil
	}
	if err != nil {
		return finance.Settings{}, fmt.Errorf("finance settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveFinanceSettings(ctx context.Context, s finance.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO finance_settings (id, owners_count, est_tax_rate, mileage_rate_first, mileage_rate_after, mileage_threshold)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owners_count = excluded.owners_count,
			est_tax_rate = excluded.est_tax_rate,
			mileage_rate_first = excluded.mileage_rate_first,
			mileage_rate_after = excluded.mileage_rate_after,
			mileage_threshold = excluded.mileage_threshold`,
		s.OwnersCount, s.EstTaxRate, s.MileageRateFirst, s.MileageRateAfter, s.MileageThreshold)
	if err != nil {
		return fmt.Errorf("save finance settings: %w", err)
	}
	return nil
}

// PendingLedgerExpenses lists expenses awaiting ledger export, oldest first.
func (r *Repository) PendingLedgerExpenses(ctx context.Context, limit int) ([]int64, error) {
	return r.pendingIDs(ctx, "expenses", limit)
}

func (r *Repository) MarkExpenseSynced(ctx context.Context, id int64) error {
	return r.markSync(ctx, "expenses", id, "synced")
}

func (r *Repository) MarkExpenseSyncError(ctx context.Context, id int64) error {
	return r.markSync(ctx, "expenses", id, "error")
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		spentOn string
		source  string
	)
	err := row.Scan(&e.ID, &spentOn, &e.Description, &e.Amount.Pence,
		&e.Category, &e.Vendor, &e.PaidBy, &source, &e.Notes)
	if err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(spentOn)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d spent_on %q: %w", e.ID, spentOn, err)
	}
	e.SpentOn = d
	e.Source = core.SourceType(source)
	return e, nil
}
