// Package pipeline orchestrates the preprocessing build: load polygons,
// run the feature builders, merge the wide tables and write the outputs.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/labels"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/store"
)

// Paths names the pipeline inputs and the output directory. The
// neighborhoods layer is required; every other input is optional and its
// absence just leaves the corresponding metrics unavailable.
type Paths struct {
	Neighborhoods  string
	UbahnCSV       string
	BusTramCSV     string
	ParksCSV       string
	PlaygroundsCSV string
	VenuesCSV      string
	DistrictStats  string
	OutDir         string
}

// Standard file names inside a raw data directory.
const (
	FileNeighborhoods = "neighborhoods.geojson"
	FileUbahn         = "ubahn_stations.csv"
	FileBusTram       = "bus_tram_stops.csv"
	FileParks         = "parks.csv"
	FilePlaygrounds   = "playgrounds.csv"
	FileVenues        = "venues.csv"
	FileDistrictStats = "district_stats.csv"
)

// PathsFromRawDir fills Paths with the standard file names under rawDir.
func PathsFromRawDir(rawDir, outDir string) Paths {
	return Paths{
		Neighborhoods:  filepath.Join(rawDir, FileNeighborhoods),
		UbahnCSV:       filepath.Join(rawDir, FileUbahn),
		BusTramCSV:     filepath.Join(rawDir, FileBusTram),
		ParksCSV:       filepath.Join(rawDir, FileParks),
		PlaygroundsCSV: filepath.Join(rawDir, FilePlaygrounds),
		VenuesCSV:      filepath.Join(rawDir, FileVenues),
		DistrictStats:  filepath.Join(rawDir, FileDistrictStats),
		OutDir:         outDir,
	}
}

// Result carries the built tables and regions.
type Result struct {
	Neighborhoods []*model.Region
	Districts     []*model.Region
	Neighborhood  *dataset.WideTable
	District      *dataset.WideTable
	RowCounts     map[string]int
}

// inputs holds the parsed raw inputs; nil slices mean the file was
// absent.
type inputs struct {
	ubahn       []geo.Point
	busTram     []geo.Point
	parks       []labels.ParkRow
	playgrounds []labels.PlaygroundRow
	venues      []labels.VenueRow
	stats       []labels.DistrictStatsRow
}

func present(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func loadInputs(p Paths) (*inputs, error) {
	in := &inputs{}
	var err error

	if present(p.UbahnCSV) {
		if in.ubahn, err = geo.ReadPointsFile(p.UbahnCSV); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no U-Bahn input, mobility unavailable", zap.String("path", p.UbahnCSV))
	}
	if present(p.BusTramCSV) {
		if in.busTram, err = geo.ReadPointsFile(p.BusTramCSV); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no bus/tram input", zap.String("path", p.BusTramCSV))
	}
	if present(p.ParksCSV) {
		if in.parks, err = labels.ReadParks(p.ParksCSV); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no parks input, green metrics unavailable", zap.String("path", p.ParksCSV))
	}
	if present(p.PlaygroundsCSV) {
		if in.playgrounds, err = labels.ReadPlaygrounds(p.PlaygroundsCSV); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no playgrounds input", zap.String("path", p.PlaygroundsCSV))
	}
	if present(p.VenuesCSV) {
		if in.venues, err = labels.ReadVenues(p.VenuesCSV); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no venues input, vibrancy unavailable", zap.String("path", p.VenuesCSV))
	}
	if present(p.DistrictStats) {
		if in.stats, err = labels.ReadDistrictStats(p.DistrictStats); err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("pipeline: no district stats input", zap.String("path", p.DistrictStats))
	}
	return in, nil
}

// Run executes the full build. When st is non-nil the wide tables are
// persisted and the run recorded; a failed build is recorded as failed.
func Run(ctx context.Context, paths Paths, st store.Store) (*Result, error) {
	var run *model.BuildRun
	if st != nil {
		var err error
		if run, err = st.CreateRun(ctx); err != nil {
			return nil, err
		}
	}

	res, err := build(ctx, paths)
	if st != nil {
		if err != nil {
			if ferr := st.FailRun(ctx, run.ID, err); ferr != nil {
				zap.L().Warn("pipeline: record failed run", zap.Error(ferr))
			}
			return nil, err
		}
		if serr := persist(ctx, st, run.ID, res); serr != nil {
			return nil, serr
		}
	}
	return res, err
}

func build(ctx context.Context, paths Paths) (*Result, error) {
	hoods, err := geo.LoadNeighborhoods(paths.Neighborhoods)
	if err != nil {
		return nil, err
	}
	districts := geo.DeriveDistricts(hoods)
	zap.L().Info("pipeline: polygons loaded",
		zap.Int("neighborhoods", len(hoods)), zap.Int("districts", len(districts)))

	in, err := loadInputs(paths)
	if err != nil {
		return nil, err
	}

	// The four neighborhood builders are independent of each other.
	var mobility, parks, playgrounds, venues *dataset.WideTable
	g, _ := errgroup.WithContext(ctx)
	if in.ubahn != nil || in.busTram != nil {
		g.Go(func() error {
			mobility = labels.Mobility(hoods, in.ubahn, in.busTram)
			return nil
		})
	}
	if in.parks != nil {
		g.Go(func() error {
			parks = labels.Parks(hoods, in.parks)
			return nil
		})
	}
	if in.playgrounds != nil {
		g.Go(func() error {
			playgrounds = labels.Playgrounds(hoods, in.playgrounds)
			return nil
		})
	}
	if in.venues != nil {
		g.Go(func() error {
			venues = labels.Venues(hoods, in.venues)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hoodTable := labels.MergeAll(labels.BaseTable(hoods), mobility, parks, playgrounds, venues)
	districtTable := labels.MergeAll(labels.BaseTable(districts), labels.Districts(districts, labels.DistrictInputs{
		Ubahn:       in.ubahn,
		BusTram:     in.busTram,
		Parks:       in.parks,
		Playgrounds: in.playgrounds,
		Venues:      in.venues,
		Stats:       in.stats,
	}))

	res := &Result{
		Neighborhoods: hoods,
		Districts:     districts,
		Neighborhood:  hoodTable,
		District:      districtTable,
		RowCounts: map[string]int{
			"neighborhoods": len(hoods),
			"districts":     len(districts),
			"ubahn":         len(in.ubahn),
			"bus_tram":      len(in.busTram),
			"parks":         len(in.parks),
			"playgrounds":   len(in.playgrounds),
			"venues":        len(in.venues),
		},
	}

	if paths.OutDir != "" {
		if err := writeOutputs(paths.OutDir, res, mobility, parks, playgrounds, venues); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Output file names under the out directory.
const (
	OutNeighborhoodCSV     = "neighborhood_labels.csv"
	OutDistrictCSV         = "district_labels.csv"
	OutNeighborhoodGeoJSON = "neighborhoods.geojson"

	OutMobilityCSV    = "mobility_labels.csv"
	OutParksCSV       = "parks_features.csv"
	OutPlaygroundsCSV = "playgrounds_features.csv"
	OutVenuesCSV      = "venues_features.csv"
)

var featureOutputs = map[string]string{
	"mobility":    OutMobilityCSV,
	"parks":       OutParksCSV,
	"playgrounds": OutPlaygroundsCSV,
	"venues":      OutVenuesCSV,
}

func writeOutputs(outDir string, res *Result, mobility, parks, playgrounds, venues *dataset.WideTable) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrap(err, "pipeline: create out dir")
	}

	features := map[string]*dataset.WideTable{
		"mobility":    mobility,
		"parks":       parks,
		"playgrounds": playgrounds,
		"venues":      venues,
	}
	for name, t := range features {
		if t == nil {
			continue
		}
		if err := t.WriteFile(filepath.Join(outDir, featureOutputs[name])); err != nil {
			return err
		}
	}

	if err := res.Neighborhood.WriteFile(filepath.Join(outDir, OutNeighborhoodCSV)); err != nil {
		return err
	}
	if err := res.District.WriteFile(filepath.Join(outDir, OutDistrictCSV)); err != nil {
		return err
	}

	return geo.WriteFeatureCollection(
		filepath.Join(outDir, OutNeighborhoodGeoJSON),
		res.Neighborhoods,
		TableProperties(res.Neighborhood),
	)
}

// TableProperties exposes a region's wide-table row as GeoJSON feature
// properties, numeric where the cell parses as a number.
func TableProperties(t *dataset.WideTable) func(*model.Region) map[string]interface{} {
	return func(r *model.Region) map[string]interface{} {
		props := make(map[string]interface{})
		for _, col := range t.Columns() {
			if col == dataset.KeyColumn {
				continue
			}
			raw, ok := t.Cell(r.Key(), col)
			if !ok {
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				props[col] = v
			} else {
				props[col] = raw
			}
		}
		return props
	}
}

func persist(ctx context.Context, st store.Store, runID string, res *Result) error {
	if err := st.SaveWideTable(ctx, model.LevelNeighborhood, res.Neighborhood); err != nil {
		return err
	}
	if err := st.SaveWideTable(ctx, model.LevelDistrict, res.District); err != nil {
		return err
	}
	return st.CompleteRun(ctx, runID, res.RowCounts)
}
