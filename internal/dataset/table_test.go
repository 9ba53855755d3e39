package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiezlabs/kiezscout/internal/scoring"
)

func TestWideTableSetAndSeries(t *testing.T) {
	t.Parallel()

	wt := NewWideTable()
	wt.SetFloat("01/mitte", "green_share", 0.12)
	wt.SetFloat("02/pankow", "green_share", 0.3)
	wt.Set("03/spandau", "green_share", "") // row exists, cell missing

	s := wt.Series("green_share")
	require.Len(t, s, 2)
	assert.InDelta(t, 0.12, s["01/mitte"], 1e-9)

	assert.Equal(t, 3, wt.Len())
	assert.Equal(t, []string{"01/mitte", "02/pankow", "03/spandau"}, wt.Keys())
}

func TestWideTableCaseInsensitiveColumns(t *testing.T) {
	t.Parallel()

	wt := NewWideTable()
	wt.SetFloat("a", "Green_Share", 1)
	assert.True(t, wt.HasColumn("green_share"))
	assert.True(t, wt.HasColumn("GREEN_SHARE"))

	s := wt.Series("green_share")
	assert.Len(t, s, 1)

	// Same column under different casing does not fork.
	wt.SetFloat("b", "green_share", 2)
	assert.Equal(t, []string{KeyColumn, "Green_Share"}, wt.Columns())
}

func TestWideTableSeriesSkipsNonNumeric(t *testing.T) {
	t.Parallel()

	wt := NewWideTable()
	wt.Set("a", "score", "12.5")
	wt.Set("b", "score", "n/a")
	s := wt.Series("score")
	require.Len(t, s, 1)
	assert.InDelta(t, 12.5, s["a"], 1e-9)
}

func TestWideTableMerge(t *testing.T) {
	t.Parallel()

	left := NewWideTable()
	left.SetFloat("a", "x", 1)
	left.SetFloat("b", "x", 2)

	right := NewWideTable()
	right.SetFloat("b", "y", 20)
	right.SetFloat("c", "y", 30)

	left.Merge(right)
	assert.Equal(t, []string{"a", "b", "c"}, left.Keys())
	assert.Len(t, left.Series("x"), 2)
	assert.Len(t, left.Series("y"), 2)
	_, ok := left.Cell("a", "y")
	assert.False(t, ok, "merge must not invent values")
}

func TestWideTableCSVRoundTrip(t *testing.T) {
	t.Parallel()

	wt := NewWideTable()
	wt.SetFloat("01/mitte", "green_share", 0.12)
	wt.Set("01/mitte", "mobility_label", "well-connected")
	wt.Set("02/pankow", "green_share", "") // missing cell survives as empty

	var buf bytes.Buffer
	require.NoError(t, wt.Write(&buf))

	got, err := ReadWideTable(&buf)
	require.NoError(t, err)

	assert.Equal(t, wt.Keys(), got.Keys())
	assert.Equal(t, wt.Series("green_share"), got.Series("green_share"))
	v, ok := got.Cell("01/mitte", "mobility_label")
	require.True(t, ok)
	assert.Equal(t, "well-connected", v)
	_, ok = got.Cell("02/pankow", "green_share")
	assert.False(t, ok)
}

func TestWideTableSetSeriesAndLabels(t *testing.T) {
	t.Parallel()

	wt := NewWideTable()
	wt.SetSeries("score", scoring.Series{"a": 1, "b": 2})
	wt.SetLabels("band", map[string]string{"a": "high"})

	assert.Len(t, wt.Series("score"), 2)
	assert.Equal(t, map[string]string{"a": "high"}, wt.Labels("band"))
}
