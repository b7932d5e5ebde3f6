package core

// MonthTotal is an amount aggregated by calendar month ("YYYY-MM").
type MonthTotal struct {
	Month string
	Total Money
}
