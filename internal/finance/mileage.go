package finance

// MileageClaim applies the two-tier per-mile reimbursement tariff: the
// first-tier rate up to the threshold, the second-tier rate beyond it.
// Negative totals clamp to zero; mileage records are validated positive
// upstream, so a negative total only arises from a caller bug.
func MileageClaim(totalMiles float64, s Settings) float64 {
	if totalMiles < 0 {
		totalMiles = 0
	}
	firstTier := totalMiles
	if firstTier > s.MileageThreshold {
		firstTier = s.MileageThreshold
	}
	secondTier := totalMiles - s.MileageThreshold
	if secondTier < 0 {
		secondTier = 0
	}
	return firstTier*s.MileageRateFirst + secondTier*s.MileageRateAfter
}
