package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/pipeline"
	"github.com/kiezlabs/kiezscout/internal/store"
)

func writeOutDir(t *testing.T, withDistrictCSV bool) string {
	t.Helper()
	dir := t.TempDir()
	d := testData()

	require.NoError(t, geo.WriteFeatureCollection(
		filepath.Join(dir, pipeline.OutNeighborhoodGeoJSON),
		d.Regions(model.LevelNeighborhood),
		nil,
	))
	require.NoError(t, d.Table(model.LevelNeighborhood).WriteFile(
		filepath.Join(dir, pipeline.OutNeighborhoodCSV)))
	if withDistrictCSV {
		require.NoError(t, d.Table(model.LevelDistrict).WriteFile(
			filepath.Join(dir, pipeline.OutDistrictCSV)))
	}
	return dir
}

func TestLoadDataFromOutDir(t *testing.T) {
	dir := writeOutDir(t, true)

	d, err := LoadData(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Len(t, d.Regions(model.LevelNeighborhood), 3)
	assert.Len(t, d.Regions(model.LevelDistrict), 2)
	assert.InDelta(t, 0.20, d.Table(model.LevelNeighborhood).Series("green_share")["01/moabit"], 1e-9)
	assert.True(t, d.Table(model.LevelDistrict).HasColumn("income_value_eur"))
}

func TestLoadDataFallsBackToStore(t *testing.T) {
	dir := writeOutDir(t, false)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.SaveWideTable(context.Background(), model.LevelDistrict, testData().Table(model.LevelDistrict)))

	d, err := LoadData(context.Background(), dir, st)
	require.NoError(t, err)
	assert.True(t, d.Table(model.LevelDistrict).HasColumn("crimes_per_1000"))
}

func TestLoadDataMissingBuild(t *testing.T) {
	_, err := LoadData(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
}
