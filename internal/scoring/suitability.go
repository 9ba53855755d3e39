package scoring

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrNoMetricsSelected signals that a suitability computation was requested
// with an empty weight selection. Callers surface this as an explicit
// "nothing to compute" state instead of an all-zero score table.
var ErrNoMetricsSelected = eris.New("scoring: no metrics selected")

// Weights holds the user-chosen importance per enabled metric, each in
// [0, 100]. A metric's presence in the map means it is enabled.
type Weights map[string]int

// Validate checks that every weight is within [0, 100].
func (w Weights) Validate() error {
	for key, v := range w {
		if v < 0 || v > 100 {
			return eris.Errorf("scoring: weight for %q must be in [0, 100], got %d", key, v)
		}
	}
	return nil
}

// RegionScore is one ranked entry of a suitability result.
type RegionScore struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Result holds per-region suitability scores and the descending ranking.
type Result struct {
	Scores  Series        `json:"scores"`
	Ranking []RegionScore `json:"ranking"`
}

// Top returns the first n ranked regions.
func (r *Result) Top(n int) []RegionScore {
	if n <= 0 || n > len(r.Ranking) {
		n = len(r.Ranking)
	}
	return r.Ranking[:n]
}

// Suitability combines pre-scaled metric series into one composite score per
// region. Each weight is divided by 100 to a fraction; fractions are not
// renormalized across metrics. A metric missing a value for a region
// contributes nothing to that region's sum (the term is excluded, never
// treated as NaN). A region missing every enabled metric stays missing.
// Weights referencing a metric not present in scaled are rejected.
func Suitability(scaled map[string]Series, weights Weights) (*Result, error) {
	if len(weights) == 0 {
		return nil, ErrNoMetricsSelected
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	for key := range weights {
		if _, ok := scaled[key]; !ok {
			return nil, eris.Errorf("scoring: unknown metric %q", key)
		}
	}

	scores := make(Series)
	for key, w := range weights {
		frac := float64(w) / 100
		for region, v := range scaled[key] {
			scores[region] += frac * v
		}
	}

	ranking := make([]RegionScore, 0, len(scores))
	for region, score := range scores {
		ranking = append(ranking, RegionScore{Key: region, Score: score})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].Key < ranking[j].Key
	})

	return &Result{Scores: scores, Ranking: ranking}, nil
}
