package labels

import (
	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// U-Bahn stations weigh heavier than surface stops in the connectivity
// density.
const (
	ubahnWeight = 0.7
	busWeight   = 0.3
)

var mobilityTerciles = scoring.TercileLabels{
	High: "well-connected",
	Mid:  "moderate",
	Low:  "remote",
}

// Mobility joins the transit point sets to the regions and derives stop
// counts, the weighted connectivity density, the 0-100 mobility score and
// the tercile label.
func Mobility(regions []*model.Region, ubahn, busTram []geo.Point) *dataset.WideTable {
	t := dataset.NewWideTable()
	ubahnCounts := geo.CountWithin(regions, ubahn)
	busCounts := geo.CountWithin(regions, busTram)

	density := make(scoring.Series, len(regions))
	for _, r := range regions {
		key := r.Key()
		u := ubahnCounts[key]
		b := busCounts[key]
		t.SetFloat(key, "ubahn_stations", float64(u))
		t.SetFloat(key, "bus_tram_stops", float64(b))
		t.SetFloat(key, "total_stops", float64(u+b))
		density[key] = (ubahnWeight*float64(u) + busWeight*float64(b)) / r.AreaEffKm2
	}

	t.SetSeries("connectivity_density", density)
	score := scoring.Scale(density, scoring.ScaleOptions{})
	t.SetSeries("mobility_score", score)
	t.SetLabels("mobility_label", scoring.Terciles(score, mobilityTerciles))
	return t
}
