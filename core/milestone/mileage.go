package milestone

// DerivedMileage returns km per percent of charge between the 80% and 20%
// crossings. It is N/A when either crossing is missing, when they are not in
// chronological order or when the odometer went backwards.
func DerivedMileage(high, low Crossing) OptFloat {
	if !high.Found || !low.Found || high.Threshold <= low.Threshold {
		return OptFloat{}
	}
	if !high.Sample.Timestamp.Before(low.Sample.Timestamp) {
		return OptFloat{}
	}
	km := low.Sample.OdometerKM - high.Sample.OdometerKM
	if km < 0 {
		return OptFloat{}
	}
	return Float(round2(km / float64(high.Threshold-low.Threshold)))
}
