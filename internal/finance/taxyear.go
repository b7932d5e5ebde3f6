// Package finance implements the Finance view's pure calculations: the UK
// tax-year range resolver, the two-tier mileage claim tariff and the profit
// and estimated-tax aggregation. Everything here is a pure function of its
// inputs; data fetching and rendering live elsewhere.
package finance

import (
	"fmt"
	"time"
)

// taxYearStartMonth/Day pin the UK tax year boundary: 6 April.
const (
	taxYearStartMonth = time.April
	taxYearStartDay   = 6
)

// TaxYear is identified by the calendar year it starts in: TaxYear{2024}
// is the year beginning 6 April 2024.
type TaxYear struct {
	StartYear int
}

// Range returns the half-open interval [6 Apr Y, 6 Apr Y+1) in UTC.
// The end date is never included in any sum.
func (y TaxYear) Range() (start, endExclusive time.Time) {
	start = time.Date(y.StartYear, taxYearStartMonth, taxYearStartDay, 0, 0, 0, 0, time.UTC)
	endExclusive = time.Date(y.StartYear+1, taxYearStartMonth, taxYearStartDay, 0, 0, 0, 0, time.UTC)
	return start, endExclusive
}

// Label renders the conventional short form, e.g. 2024 -> "2024-25".
// The trailing year is always two digits, so 2099 -> "2099-00".
func (y TaxYear) Label() string {
	return fmt.Sprintf("%d-%02d", y.StartYear, (y.StartYear+1)%100)
}

// Contains reports whether t falls inside the tax year's half-open range.
func (y TaxYear) Contains(t time.Time) bool {
	start, end := y.Range()
	return !t.Before(start) && t.Before(end)
}

// CurrentTaxYear resolves the tax year that today falls in: on or after
// 6 April the active year starts in the current calendar year, before it
// in the previous one.
func CurrentTaxYear(today time.Time) TaxYear {
	boundary := time.Date(today.Year(), taxYearStartMonth, taxYearStartDay, 0, 0, 0, 0, time.UTC)
	if today.Before(boundary) {
		return TaxYear{StartYear: today.Year() - 1}
	}
	return TaxYear{StartYear: today.Year()}
}
