package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, c.Metrics)

	m, ok := c.Find("mobility")
	require.True(t, ok)
	assert.Equal(t, "connectivity_density", m.Column)
	assert.False(t, m.Inverse)
	assert.True(t, m.HasLevel(LevelNeighborhood))

	income, ok := c.Find("income")
	require.True(t, ok)
	assert.Equal(t, "income_value_eur", income.Column)

	safety, ok := c.Find("safety")
	require.True(t, ok)
	assert.True(t, safety.Inverse)
	assert.False(t, safety.HasLevel(LevelNeighborhood))
	assert.True(t, safety.HasLevel(LevelDistrict))
}

func TestCatalogForLevel(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)

	hood := c.ForLevel(LevelNeighborhood)
	district := c.ForLevel(LevelDistrict)
	assert.Greater(t, len(district), len(hood), "district level carries the external stats metrics")
	for _, m := range hood {
		assert.True(t, m.HasLevel(LevelNeighborhood))
	}
}

func TestCatalogAvailable(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)

	have := map[string]bool{"connectivity_density": true, "green_share": true}
	avail := c.Available(LevelNeighborhood, func(col string) bool { return have[col] })
	require.Len(t, avail, 2)
	assert.Equal(t, "mobility", avail[0].Key)
	assert.Equal(t, "green", avail[1].Key)
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"missing column", "metrics:\n  - key: a\n    title: A\n"},
		{"duplicate key", "metrics:\n  - key: a\n    column: x\n  - key: a\n    column: y\n"},
		{"weight out of range", "metrics:\n  - key: a\n    column: x\n    default_weight: 120\n"},
		{"not yaml", ": ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRegionKey(t *testing.T) {
	t.Parallel()

	hood := &Region{Level: LevelNeighborhood, DistrictID: "08", Neighborhood: "Neukölln", CanonName: "neukoelln"}
	assert.Equal(t, "08/neukoelln", hood.Key())
	assert.Equal(t, "Neukölln", hood.DisplayName())

	d := &Region{Level: LevelDistrict, DistrictID: "08", District: "Neukölln"}
	assert.Equal(t, "08", d.Key())
	assert.Equal(t, "Neukölln", d.DisplayName())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	l, ok := ParseLevel("district")
	assert.True(t, ok)
	assert.Equal(t, LevelDistrict, l)
	_, ok = ParseLevel("city")
	assert.False(t, ok)
}
