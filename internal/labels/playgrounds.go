package labels

import (
	"strings"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/names"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// playgroundDensityBand is the ±band around the median density (per km²)
// that still counts as average.
const playgroundDensityBand = 0.30

// IsPlayground reports whether a green-area type names a Spielplatz.
func IsPlayground(greenAreaType string) bool {
	return strings.Contains(strings.ToLower(greenAreaType), "spielplatz")
}

// Playgrounds counts playground records per region and derives the
// density per effective km² with its median-band label.
func Playgrounds(regions []*model.Region, rows []PlaygroundRow) *dataset.WideTable {
	areaEffByKey := make(map[string]float64, len(regions))
	for _, r := range regions {
		areaEffByKey[r.Key()] = r.AreaEffKm2
	}

	counts := make(map[string]int)
	for _, row := range rows {
		if !IsPlayground(row.GreenAreaType) {
			continue
		}
		key := row.DistrictID + "/" + names.Canon(row.Neighborhood)
		if _, ok := areaEffByKey[key]; !ok {
			continue
		}
		counts[key]++
	}

	n := make(scoring.Series, len(counts))
	density := make(scoring.Series, len(counts))
	for key, c := range counts {
		n[key] = float64(c)
		density[key] = float64(c) / areaEffByKey[key]
	}

	t := dataset.NewWideTable()
	t.SetSeries("n_playgrounds", n)
	t.SetSeries("playgrounds_per_km2", density)
	t.SetLabels("playgrounds_density_label", scoring.MedianBand(density, playgroundDensityBand))
	return t
}
