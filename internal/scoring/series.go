// Package scoring implements percentile scaling, tercile labeling, and the
// weighted suitability aggregation used by the explorer.
package scoring

import "sort"

// Series maps a region key to a numeric value. Absence of a key means the
// value is missing for that region; transforms must preserve missingness
// rather than coercing it to zero.
type Series map[string]float64

// Keys returns the region keys present in the series, sorted.
func (s Series) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the non-missing values in key order.
func (s Series) Values() []float64 {
	keys := s.Keys()
	vals := make([]float64, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, s[k])
	}
	return vals
}

// Clone returns a copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
