package labels

import (
	"github.com/kiezlabs/kiezscout/internal/cuisine"
	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// DistrictInputs bundles the raw inputs the district table is built from.
// The feature rows are re-aggregated at district granularity rather than
// rolled up from neighborhood results, so scores and labels are computed
// against the district distribution.
type DistrictInputs struct {
	Ubahn       []geo.Point
	BusTram     []geo.Point
	Parks       []ParkRow
	Playgrounds []PlaygroundRow
	Venues      []VenueRow
	Stats       []DistrictStatsRow
}

// Districts builds the per-district wide table. A nil input slice means
// the source table was not provided; its columns are left out entirely so
// the metrics read as unavailable rather than zero.
func Districts(districts []*model.Region, in DistrictInputs) *dataset.WideTable {
	t := dataset.NewWideTable()

	if in.Ubahn != nil || in.BusTram != nil {
		t.Merge(Mobility(districts, in.Ubahn, in.BusTram))
	}
	if in.Parks != nil {
		t.Merge(districtParks(districts, in.Parks))
	}
	if in.Playgrounds != nil {
		t.Merge(districtPlaygrounds(districts, in.Playgrounds))
	}
	if in.Venues != nil {
		t.Merge(districtVenues(districts, in.Venues))
	}
	if in.Stats != nil {
		t.Merge(DistrictStats(in.Stats))
	}
	return t
}

func districtParks(districts []*model.Region, rows []ParkRow) *dataset.WideTable {
	areaByID := make(map[string]float64, len(districts))
	for _, d := range districts {
		areaByID[d.Key()] = d.AreaKm2
	}

	green := make(scoring.Series)
	for _, row := range rows {
		if _, ok := areaByID[row.DistrictID]; !ok {
			continue
		}
		green[row.DistrictID] += row.SizeSqm / 1e6
	}
	share := make(scoring.Series, len(green))
	for id, g := range green {
		if area := areaByID[id]; area > 0 {
			share[id] = g / area
		}
	}

	t := dataset.NewWideTable()
	t.SetSeries("green_area_km2", green)
	t.SetSeries("green_share", share)
	t.SetLabels("green_share_label", scoring.MedianBand(share, greenShareBand))
	return t
}

func districtPlaygrounds(districts []*model.Region, rows []PlaygroundRow) *dataset.WideTable {
	areaEffByID := make(map[string]float64, len(districts))
	for _, d := range districts {
		areaEffByID[d.Key()] = d.AreaEffKm2
	}

	counts := make(map[string]int)
	for _, row := range rows {
		if !IsPlayground(row.GreenAreaType) {
			continue
		}
		if _, ok := areaEffByID[row.DistrictID]; !ok {
			continue
		}
		counts[row.DistrictID]++
	}

	n := make(scoring.Series, len(counts))
	density := make(scoring.Series, len(counts))
	for id, c := range counts {
		n[id] = float64(c)
		density[id] = float64(c) / areaEffByID[id]
	}

	t := dataset.NewWideTable()
	t.SetSeries("n_playgrounds", n)
	t.SetSeries("playgrounds_per_km2", density)
	t.SetLabels("playgrounds_density_label", scoring.MedianBand(density, playgroundDensityBand))
	return t
}

func districtVenues(districts []*model.Region, rows []VenueRow) *dataset.WideTable {
	areaEffByID := make(map[string]float64, len(districts))
	for _, d := range districts {
		areaEffByID[d.Key()] = d.AreaEffKm2
	}

	counts := make(map[string]int)
	cuisines := make(map[string]map[string]bool)
	for _, row := range rows {
		if _, ok := areaEffByID[row.DistrictID]; !ok {
			continue
		}
		counts[row.DistrictID]++
		set := cuisines[row.DistrictID]
		if set == nil {
			set = make(map[string]bool)
			cuisines[row.DistrictID] = set
		}
		for _, tok := range cuisine.Tokens(row.Cuisine) {
			set[tok] = true
		}
	}

	return venuesTable(counts, cuisines, areaEffByID)
}

// DistrictStats turns the external statistics rows into wide-table
// columns. Nil fields stay missing.
func DistrictStats(rows []DistrictStatsRow) *dataset.WideTable {
	t := dataset.NewWideTable()
	for _, row := range rows {
		if row.DistrictID == "" {
			continue
		}
		setOptional(t, row.DistrictID, "income_value_eur", row.IncomeValueEur)
		setOptional(t, row.DistrictID, "crimes_per_1000", row.CrimesPer1000)
		setOptional(t, row.DistrictID, "unemployment_per_1000", row.UnemploymentPer1000)
		setOptional(t, row.DistrictID, "density_per_km2", row.DensityPerKm2)
		setOptional(t, row.DistrictID, "diversity_share", row.DiversityShare)
	}
	return t
}

func setOptional(t *dataset.WideTable, key, column string, v *float64) {
	if v == nil {
		t.Set(key, column, "")
		return
	}
	t.SetFloat(key, column, *v)
}
