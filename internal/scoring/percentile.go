package scoring

import (
	"math"
	"sort"
)

// Default percentile anchors for scaling.
const (
	DefaultLoPercentile = 10.0
	DefaultHiPercentile = 90.0
)

// midScale is returned for every entry of a degenerate series whose anchor
// percentiles coincide.
const midScale = 50.0

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. Returns NaN for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ScaleOptions configures percentile scaling.
type ScaleOptions struct {
	// Lo and Hi are the anchor percentiles. Zero values select the
	// defaults (10 and 90).
	Lo float64
	Hi float64
	// Inverse flags a metric where lower raw values are better (crime,
	// unemployment). The series is negated before anchors are computed so
	// lower raw values scale higher.
	Inverse bool
}

func (o ScaleOptions) withDefaults() ScaleOptions {
	if o.Lo == 0 && o.Hi == 0 {
		o.Lo = DefaultLoPercentile
		o.Hi = DefaultHiPercentile
	}
	return o
}

// Scale maps a series onto [0, 100] anchored at its Lo and Hi percentiles:
// values at or below the low anchor map to 0, values at or above the high
// anchor map to 100, and values between are linear. A degenerate series
// (identical anchors) maps every entry to 50. Missing entries stay missing.
func Scale(s Series, opts ScaleOptions) Series {
	opts = opts.withDefaults()

	out := make(Series, len(s))
	if len(s) == 0 {
		return out
	}

	vals := make([]float64, 0, len(s))
	for _, v := range s {
		if opts.Inverse {
			v = -v
		}
		vals = append(vals, v)
	}
	pLo := Percentile(vals, opts.Lo)
	pHi := Percentile(vals, opts.Hi)

	for k, v := range s {
		if opts.Inverse {
			v = -v
		}
		if pHi == pLo {
			out[k] = midScale
			continue
		}
		r := (v - pLo) / (pHi - pLo)
		if r < 0 {
			r = 0
		} else if r > 1 {
			r = 1
		}
		out[k] = r * 100
	}
	return out
}
