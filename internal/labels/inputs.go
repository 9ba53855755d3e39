// Package labels builds the per-feature tables from the raw open-data
// inputs and merges them into the wide per-region tables the scoring
// layer works from.
package labels

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// ParkRow is one park or green area of the parks input.
type ParkRow struct {
	DistrictID   string  `csv:"district_id"`
	Neighborhood string  `csv:"neighborhood"`
	SizeSqm      float64 `csv:"size_sqm"`
}

// PlaygroundRow is one green-area record of the playgrounds input; only
// rows whose type names a Spielplatz count as playgrounds.
type PlaygroundRow struct {
	DistrictID    string `csv:"district_id"`
	Neighborhood  string `csv:"neighborhood"`
	GreenAreaType string `csv:"green_area_type"`
}

// VenueRow is one restaurant of the venues input. Cuisine holds a
// semicolon-separated tag list.
type VenueRow struct {
	DistrictID   string `csv:"district_id"`
	Neighborhood string `csv:"neighborhood"`
	Cuisine      string `csv:"cuisine"`
}

// DistrictStatsRow carries the external per-district statistics. Every
// value is optional; a column absent from the file leaves the field nil
// and the metric missing.
type DistrictStatsRow struct {
	DistrictID          string   `csv:"district_id"`
	IncomeValueEur      *float64 `csv:"income_value_eur,omitempty"`
	CrimesPer1000       *float64 `csv:"crimes_per_1000,omitempty"`
	UnemploymentPer1000 *float64 `csv:"unemployment_per_1000,omitempty"`
	DensityPerKm2       *float64 `csv:"density_per_km2,omitempty"`
	DiversityShare      *float64 `csv:"diversity_share,omitempty"`
}

func readRows[T any](path, what string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "labels: read %s input", what)
	}
	var rows []T
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "labels: parse %s input", what)
	}
	return rows, nil
}

// ReadParks reads the parks input CSV.
func ReadParks(path string) ([]ParkRow, error) {
	return readRows[ParkRow](path, "parks")
}

// ReadPlaygrounds reads the playgrounds input CSV.
func ReadPlaygrounds(path string) ([]PlaygroundRow, error) {
	return readRows[PlaygroundRow](path, "playgrounds")
}

// ReadVenues reads the venues input CSV.
func ReadVenues(path string) ([]VenueRow, error) {
	return readRows[VenueRow](path, "venues")
}

// ReadDistrictStats reads the optional external district statistics CSV.
func ReadDistrictStats(path string) ([]DistrictStatsRow, error) {
	return readRows[DistrictStatsRow](path, "district stats")
}
