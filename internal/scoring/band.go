package scoring

const (
	BandAbove   = "above average"
	BandAverage = "average"
	BandBelow   = "below average"
)

// MedianBand labels each present entry relative to the series median:
// within ±band of the median is average, outside is above or below.
// Missing entries are not labeled; callers treat them as average.
func MedianBand(s Series, band float64) map[string]string {
	out := make(map[string]string, len(s))
	if len(s) == 0 {
		return out
	}

	vals := make([]float64, 0, len(s))
	for _, v := range s {
		vals = append(vals, v)
	}
	med := Percentile(vals, 50)

	for k, v := range s {
		switch {
		case v < med-band:
			out[k] = BandBelow
		case v > med+band:
			out[k] = BandAbove
		default:
			out[k] = BandAverage
		}
	}
	return out
}
