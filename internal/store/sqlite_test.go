package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, s.CompleteRun(ctx, run.ID, map[string]int{"mobility": 96, "parks": 80}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, 96, runs[0].RowCounts["mobility"])
}

func TestSQLiteFailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, eris.New("parks input missing")))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "parks input missing")
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	err := s.CompleteRun(context.Background(), "missing", nil)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteWideTableRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	wt := dataset.NewWideTable()
	wt.Set("01/wedding", "district", "Mitte")
	wt.SetFloat("01/wedding", "green_share", 0.25)
	wt.Set("02/pankow", "district", "Pankow") // green_share missing

	require.NoError(t, s.SaveWideTable(ctx, model.LevelNeighborhood, wt))

	got, err := s.LoadWideTable(ctx, model.LevelNeighborhood)
	require.NoError(t, err)
	assert.Equal(t, wt.Keys(), got.Keys())
	assert.Equal(t, wt.Series("green_share"), got.Series("green_share"))
	_, ok := got.Cell("02/pankow", "green_share")
	assert.False(t, ok, "missing cells stay missing")
	assert.True(t, got.HasColumn("green_share"))
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := dataset.NewWideTable()
	first.SetFloat("a", "x", 1)
	require.NoError(t, s.SaveWideTable(ctx, model.LevelDistrict, first))

	second := dataset.NewWideTable()
	second.SetFloat("b", "y", 2)
	require.NoError(t, s.SaveWideTable(ctx, model.LevelDistrict, second))

	got, err := s.LoadWideTable(ctx, model.LevelDistrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Keys())
	assert.False(t, got.HasColumn("x"))
}

func TestSQLiteLoadWideTableNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.LoadWideTable(context.Background(), model.LevelDistrict)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteLevelsIsolated(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	hood := dataset.NewWideTable()
	hood.SetFloat("01/wedding", "green_share", 0.2)
	require.NoError(t, s.SaveWideTable(ctx, model.LevelNeighborhood, hood))

	_, err := s.LoadWideTable(ctx, model.LevelDistrict)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}
