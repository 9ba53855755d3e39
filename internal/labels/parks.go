package labels

import (
	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/names"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// greenShareBand is the ±band around the median green share that still
// counts as average.
const greenShareBand = 0.03

// Parks sums park area per region and derives the green share and its
// median-band label. Regions without any park stay missing rather than
// zero, matching how the upstream data reads: no record, no claim.
func Parks(regions []*model.Region, rows []ParkRow) *dataset.WideTable {
	areaByKey := make(map[string]float64, len(regions))
	for _, r := range regions {
		areaByKey[r.Key()] = r.AreaKm2
	}

	green := make(scoring.Series)
	for _, row := range rows {
		key := row.DistrictID + "/" + names.Canon(row.Neighborhood)
		if _, ok := areaByKey[key]; !ok {
			continue
		}
		green[key] += row.SizeSqm / 1e6
	}

	share := make(scoring.Series, len(green))
	for key, g := range green {
		if area := areaByKey[key]; area > 0 {
			share[key] = g / area
		}
	}

	t := dataset.NewWideTable()
	t.SetSeries("green_area_km2", green)
	t.SetSeries("green_share", share)
	t.SetLabels("green_share_label", scoring.MedianBand(share, greenShareBand))
	return t
}
