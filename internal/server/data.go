// Package server serves the built label tables, the polygon layer and the
// weighted suitability computation over HTTP, plus the bundled map UI.
package server

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/pipeline"
	"github.com/kiezlabs/kiezscout/internal/store"
)

// Data holds everything the handlers serve: polygon layers and wide label
// tables per level. It is loaded once at startup and read-only afterwards,
// so handlers share it without locking.
type Data struct {
	regions map[model.Level][]*model.Region
	tables  map[model.Level]*dataset.WideTable
}

// NewData assembles a Data from already-built pieces. District regions are
// derived from the neighborhoods.
func NewData(hoods []*model.Region, neighborhood, district *dataset.WideTable) *Data {
	return &Data{
		regions: map[model.Level][]*model.Region{
			model.LevelNeighborhood: hoods,
			model.LevelDistrict:     geo.DeriveDistricts(hoods),
		},
		tables: map[model.Level]*dataset.WideTable{
			model.LevelNeighborhood: neighborhood,
			model.LevelDistrict:     district,
		},
	}
}

// LoadData reads the build outputs from outDir, falling back to the store
// for a wide table whose CSV is absent. The enriched GeoJSON written by the
// build is the polygon source.
func LoadData(ctx context.Context, outDir string, st store.Store) (*Data, error) {
	hoods, err := geo.LoadNeighborhoods(filepath.Join(outDir, pipeline.OutNeighborhoodGeoJSON))
	if err != nil {
		return nil, eris.Wrap(err, "server: load polygon layer (run `kiezscout build all` first)")
	}

	neighborhood, err := loadTable(ctx, filepath.Join(outDir, pipeline.OutNeighborhoodCSV), model.LevelNeighborhood, st)
	if err != nil {
		return nil, err
	}
	district, err := loadTable(ctx, filepath.Join(outDir, pipeline.OutDistrictCSV), model.LevelDistrict, st)
	if err != nil {
		return nil, err
	}

	zap.L().Info("server: data loaded",
		zap.Int("neighborhoods", len(hoods)),
		zap.Int("neighborhood_rows", neighborhood.Len()),
		zap.Int("district_rows", district.Len()))
	return NewData(hoods, neighborhood, district), nil
}

func loadTable(ctx context.Context, path string, level model.Level, st store.Store) (*dataset.WideTable, error) {
	t, err := dataset.ReadWideTableFile(path)
	if err == nil {
		return t, nil
	}
	if st == nil {
		return nil, err
	}
	zap.L().Info("server: wide table CSV missing, loading from store",
		zap.String("path", path), zap.String("level", string(level)))
	t, serr := st.LoadWideTable(ctx, level)
	if serr != nil {
		return nil, eris.Wrapf(serr, "server: no %s table on disk or in store", level)
	}
	return t, nil
}

// Table returns the wide table for level.
func (d *Data) Table(level model.Level) *dataset.WideTable {
	return d.tables[level]
}

// Regions returns the polygon regions for level.
func (d *Data) Regions(level model.Level) []*model.Region {
	return d.regions[level]
}
