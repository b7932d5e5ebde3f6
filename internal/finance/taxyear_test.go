package finance

import (
	"testing"
	"time"
)

func TestTaxYearRange(t *testing.T) {
	start, end := (TaxYear{StartYear: 2024}).Range()
	if got := start.Format("2006-01-02"); got != "2024-04-06" {
		t.Fatalf("start = %s, want 2024-04-06", got)
	}
	if got := end.Format("2006-01-02"); got != "2025-04-06" {
		t.Fatalf("endExclusive = %s, want 2025-04-06", got)
	}
}

func TestTaxYearsAreContiguous(t *testing.T) {
	for y := 1990; y <= 2100; y++ {
		_, end := (TaxYear{StartYear: y}).Range()
		next, _ := (TaxYear{StartYear: y + 1}).Range()
		if !end.Equal(next) {
			t.Fatalf("year %d endExclusive %v != year %d start %v", y, end, y+1, next)
		}
	}
}

func TestTaxYearLabel(t *testing.T) {
	cases := []struct {
		startYear int
		want      string
	}{
		{2024, "2024-25"},
		{2019, "2019-20"},
		{2099, "2099-00"},
		{2009, "2009-10"},
	}
	for _, tc := range cases {
		if got := (TaxYear{StartYear: tc.startYear}).Label(); got != tc.want {
			t.Errorf("Label(%d) = %q, want %q", tc.startYear, got, tc.want)
		}
	}
}

func TestCurrentTaxYear(t *testing.T) {
	cases := []struct {
		today string
		want  int
	}{
		{"2025-04-05", 2024}, // day before boundary
		{"2025-04-06", 2025}, // boundary day starts the new year
		{"2025-04-07", 2025},
		{"2025-01-01", 2024},
		{"2025-12-31", 2025},
	}
	for _, tc := range cases {
		today, err := time.Parse("2006-01-02", tc.today)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.today, err)
		}
		if got := CurrentTaxYear(today); got.StartYear != tc.want {
			t.Errorf("CurrentTaxYear(%s) = %d, want %d", tc.today, got.StartYear, tc.want)
		}
	}
}

func TestTaxYearContains(t *testing.T) {
	y := TaxYear{StartYear: 2024}
	in := []string{"2024-04-06", "2024-12-25", "2025-04-05"}
	out := []string{"2024-04-05", "2025-04-06"}
	for _, s := range in {
		d, _ := time.Parse("2006-01-02", s)
		if !y.Contains(d) {
			t.Errorf("expected %s inside %s", s, y.Label())
		}
	}
	for _, s := range out {
		d, _ := time.Parse("2006-01-02", s)
		if y.Contains(d) {
			t.Errorf("expected %s outside %s", s, y.Label())
		}
	}
}
