package finance

// Settings are the bookkeeping knobs read from the settings store. Missing
// settings fall back to DefaultSettings.
type Settings struct {
	OwnersCount      int
	EstTaxRate       float64 // fraction in [0,1]
	MileageRateFirst float64 // per mile up to MileageThreshold
	MileageRateAfter float64 // per mile beyond MileageThreshold
	MileageThreshold float64 // miles
}

// DefaultSettings returns the values used when no settings row exists.
func DefaultSettings() Settings {
	return Settings{
		OwnersCount:      2,
		EstTaxRate:       0.20,
		MileageRateFirst: 0.45,
		MileageRateAfter: 0.25,
		MileageThreshold: 10000,
	}
}

// OrdersSummary is the revenue snapshot for a date range.
type OrdersSummary struct {
	GrossRevenue float64
	PlatformFees float64
	Payout       float64
}

// Figures is the aggregated output for a tax year. All values are pounds;
// rounding happens only at display time.
type Figures struct {
	GrossRevenue  float64
	PlatformFees  float64
	ExpensesTotal float64
	TotalMiles    float64
	MileageClaim  float64
	Profit        float64
	PerOwner      float64
	EstTaxEach    float64
	EstTaxTotal   float64
}

// Aggregate combines the orders summary with the expense and mileage totals
// for the same range. Cost of goods sold is deliberately excluded from
// profit: stock purchases and shipping are already in the expense ledger,
// and counting COGS as well would double count them.
//
// Estimated tax is never computed on a loss: a negative per-owner profit
// yields zero estimated tax.
func Aggregate(sum OrdersSummary, expensesTotal, totalMiles float64, s Settings) Figures {
	claim := MileageClaim(totalMiles, s)
	profit := sum.GrossRevenue - sum.PlatformFees - (expensesTotal + claim)

	owners := s.OwnersCount
	if owners < 1 {
		owners = 1
	}
	perOwner := profit / float64(owners)

	taxableEach := perOwner
	if taxableEach < 0 {
		taxableEach = 0
	}
	estTaxEach := taxableEach * s.EstTaxRate

	return Figures{
		GrossRevenue:  sum.GrossRevenue,
		PlatformFees:  sum.PlatformFees,
		ExpensesTotal: expensesTotal,
		TotalMiles:    totalMiles,
		MileageClaim:  claim,
		Profit:        profit,
		PerOwner:      perOwner,
		EstTaxEach:    estTaxEach,
		EstTaxTotal:   estTaxEach * float64(s.OwnersCount),
	}
}
