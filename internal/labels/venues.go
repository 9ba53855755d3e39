package labels

import (
	"github.com/kiezlabs/kiezscout/internal/cuisine"
	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/names"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// The vibrancy index mixes venue density and cuisine variety.
const (
	vibrancyDensityWeight = 0.65
	vibrancyVarietyWeight = 0.35

	// Eligibility cutoffs for the vibrancy flag.
	minVibrancyVenues  = 10
	minVibrancyDensity = 2.0
)

var vibrancyTerciles = scoring.TercileLabels{
	High: "vibrant",
	Mid:  "average",
	Low:  "sparse",
}

// Venues counts restaurants and national cuisine variety per region and
// derives the density-based vibrancy scores, the composite index, the
// eligibility flag and the tercile label.
func Venues(regions []*model.Region, rows []VenueRow) *dataset.WideTable {
	areaEffByKey := make(map[string]float64, len(regions))
	for _, r := range regions {
		areaEffByKey[r.Key()] = r.AreaEffKm2
	}

	counts := make(map[string]int)
	cuisines := make(map[string]map[string]bool)
	for _, row := range rows {
		key := row.DistrictID + "/" + names.Canon(row.Neighborhood)
		if _, ok := areaEffByKey[key]; !ok {
			continue
		}
		counts[key]++
		set := cuisines[key]
		if set == nil {
			set = make(map[string]bool)
			cuisines[key] = set
		}
		for _, tok := range cuisine.Tokens(row.Cuisine) {
			set[tok] = true
		}
	}

	return venuesTable(counts, cuisines, areaEffByKey)
}

func venuesTable(counts map[string]int, cuisines map[string]map[string]bool, areaEffByKey map[string]float64) *dataset.WideTable {
	n := make(scoring.Series, len(counts))
	variety := make(scoring.Series, len(counts))
	density := make(scoring.Series, len(counts))
	for key, c := range counts {
		n[key] = float64(c)
		variety[key] = float64(len(cuisines[key]))
		density[key] = float64(c) / areaEffByKey[key]
	}

	vScore := scoring.Scale(density, scoring.ScaleOptions{})
	cScore := scoring.Scale(variety, scoring.ScaleOptions{})
	vv := make(scoring.Series, len(vScore))
	for key, v := range vScore {
		vv[key] = vibrancyDensityWeight*v + vibrancyVarietyWeight*cScore[key]
	}

	t := dataset.NewWideTable()
	t.SetSeries("n_venues", n)
	t.SetSeries("n_cuisine_types", variety)
	t.SetSeries("venues_per_km2", density)
	t.SetSeries("v_score", vScore)
	t.SetSeries("c_score", cScore)
	t.SetSeries("vv_index", vv)
	for key := range counts {
		eligible := "false"
		if n[key] >= minVibrancyVenues && density[key] >= minVibrancyDensity {
			eligible = "true"
		}
		t.Set(key, "vibrancy_eligible", eligible)
	}
	t.SetLabels("vibrancy_label", scoring.Terciles(vv, vibrancyTerciles))
	return t
}
