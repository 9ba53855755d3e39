package geo

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/kiezlabs/kiezscout/internal/model"
)

// square builds a d-degree square with its lower-left corner at lon/lat.
func square(lon, lat, d float64) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	poly := geom.NewPolygon(geom.XY)
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		lon, lat,
		lon + d, lat,
		lon + d, lat + d,
		lon, lat + d,
		lon, lat,
	})
	if err := poly.Push(ring); err != nil {
		panic(err)
	}
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return mp
}

func TestAreaKm2(t *testing.T) {
	t.Parallel()

	// 0.01 degree square at Berlin's latitude: roughly 1.11 km tall and
	// 0.68 km wide.
	got := AreaKm2(square(13.4, 52.5, 0.01))
	assert.InDelta(t, 0.75, got, 0.05)

	assert.Zero(t, AreaKm2(nil))
	assert.Zero(t, AreaKm2(geom.NewMultiPolygon(geom.XY)))
}

func TestEffectiveAreaFloor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.20, EffectiveAreaKm2(0.05))
	assert.Equal(t, 1.5, EffectiveAreaKm2(1.5))
}

func TestContains(t *testing.T) {
	t.Parallel()

	mp := square(13.0, 52.0, 1)
	assert.True(t, Contains(mp, 13.5, 52.5))
	assert.False(t, Contains(mp, 14.5, 52.5))
	assert.False(t, Contains(nil, 13.5, 52.5))
}

func TestContainsHole(t *testing.T) {
	t.Parallel()

	outer := geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0})
	hole := geom.NewLinearRingFlat(geom.XY, []float64{1, 1, 3, 1, 3, 3, 1, 3, 1, 1})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(outer))
	require.NoError(t, poly.Push(hole))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))

	assert.True(t, Contains(mp, 0.5, 0.5))
	assert.False(t, Contains(mp, 2, 2), "point in hole")
}

func TestCountWithin(t *testing.T) {
	t.Parallel()

	regions := []*model.Region{
		NewNeighborhood("01", "Mitte", "Mitte", square(13.0, 52.0, 1)),
		NewNeighborhood("02", "Pankow", "Pankow", square(14.0, 52.0, 1)),
	}
	points := []Point{
		{Lon: 13.5, Lat: 52.5},
		{Lon: 13.6, Lat: 52.1},
		{Lon: 14.5, Lat: 52.5},
		{Lon: 20, Lat: 20}, // outside everything
	}

	counts := CountWithin(regions, points)
	assert.Equal(t, 2, counts["01/mitte"])
	assert.Equal(t, 1, counts["02/pankow"])
}

func TestCountWithinZeroEntries(t *testing.T) {
	t.Parallel()

	regions := []*model.Region{NewNeighborhood("01", "Mitte", "Mitte", square(13, 52, 1))}
	counts := CountWithin(regions, nil)
	v, ok := counts["01/mitte"]
	require.True(t, ok, "empty region must get an explicit zero")
	assert.Zero(t, v)
}

func TestReadPoints(t *testing.T) {
	t.Parallel()

	csv := "name,Latitude,lng\nAlexanderplatz,52.52,13.41\nbad,abc,13.0\n"
	pts, err := ReadPoints(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, "Alexanderplatz", pts[0].Name)
	assert.InDelta(t, 52.52, pts[0].Lat, 1e-9)
	assert.InDelta(t, 13.41, pts[0].Lon, 1e-9)
}

func TestReadPointsNoCoordinateColumns(t *testing.T) {
	t.Parallel()

	_, err := ReadPoints(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
}

func TestLoadNeighborhoodsGeoJSON(t *testing.T) {
	t.Parallel()

	fc := geojson.FeatureCollection{Features: []*geojson.Feature{
		{
			Geometry: square(13.0, 52.0, 0.1),
			Properties: map[string]interface{}{
				"BEZ": "01", "BEZNAME": "Mitte", "OTNAME": "Wedding",
			},
		},
		{
			Geometry: square(13.2, 52.0, 0.1).Polygon(0),
			Properties: map[string]interface{}{
				"district_id": "02", "district": "Pankow", "neighborhood": "Weißensee",
			},
		},
	}}
	data, err := json.Marshal(&fc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hoods.geojson")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	regions, err := LoadNeighborhoods(path)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "01/wedding", regions[0].Key())
	assert.Equal(t, "Mitte", regions[0].District)
	assert.Greater(t, regions[0].AreaKm2, 0.0)

	assert.Equal(t, "02/weissensee", regions[1].Key())
}

func TestLoadNeighborhoodsCSV(t *testing.T) {
	t.Parallel()

	ewkbHex := func(mp *geom.MultiPolygon) string {
		raw, err := ewkb.Marshal(mp, ewkb.NDR)
		require.NoError(t, err)
		return hex.EncodeToString(raw)
	}

	csv := "district_id,district,neighborhood,geometry\n" +
		"01,Mitte,Wedding,\"MULTIPOLYGON (((13 52, 13.1 52, 13.1 52.1, 13 52.1, 13 52)))\"\n" +
		"02,Pankow,Weißensee," + ewkbHex(square(13.2, 52.0, 0.1)) + "\n"
	path := filepath.Join(t.TempDir(), "hoods.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	regions, err := LoadNeighborhoods(path)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "01/wedding", regions[0].Key())
	assert.Equal(t, "02/weissensee", regions[1].Key())
}

func TestLoadNeighborhoodsUnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := LoadNeighborhoods("polygons.gpkg")
	assert.Error(t, err)
}

func TestDeriveDistricts(t *testing.T) {
	t.Parallel()

	hoods := []*model.Region{
		NewNeighborhood("02", "Pankow", "Weißensee", square(13.2, 52.0, 0.1)),
		NewNeighborhood("01", "Mitte", "Wedding", square(13.0, 52.0, 0.1)),
		NewNeighborhood("01", "Mitte", "Moabit", square(13.1, 52.0, 0.1)),
	}

	districts := DeriveDistricts(hoods)
	require.Len(t, districts, 2)

	// Sorted by district id.
	assert.Equal(t, "01", districts[0].Key())
	assert.Equal(t, model.LevelDistrict, districts[0].Level)
	assert.Equal(t, 2, districts[0].Geometry.NumPolygons())
	assert.InDelta(t, hoods[1].AreaKm2+hoods[2].AreaKm2, districts[0].AreaKm2, 1e-9)
	assert.Equal(t, "02", districts[1].Key())
}

func TestWriteFeatureCollection(t *testing.T) {
	t.Parallel()

	regions := []*model.Region{NewNeighborhood("01", "Mitte", "Wedding", square(13, 52, 0.1))}
	path := filepath.Join(t.TempDir(), "out.geojson")
	err := WriteFeatureCollection(path, regions, func(r *model.Region) map[string]interface{} {
		return map[string]interface{}{"green_share": 0.25}
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "01/wedding", fc.Features[0].Properties["region_key"])
	assert.InDelta(t, 0.25, fc.Features[0].Properties["green_share"].(float64), 1e-9)
}
