// Package geo loads the polygon layers, computes areas, and joins point
// sets to regions. All geometry is WGS84 lon/lat.
package geo

import (
	"math"

	geom "github.com/twpayne/go-geom"
)

// MinEffectiveAreaKm2 is the floor applied before any per-km² density so
// that tiny slivers of polygons do not blow densities up.
const MinEffectiveAreaKm2 = 0.20

// AreaKm2 computes the planar area of a multipolygon in km² after scaling
// degrees to metres at the polygon's mid latitude. At city scale the
// equirectangular approximation is well within a percent of the geodesic
// area.
func AreaKm2(mp *geom.MultiPolygon) float64 {
	if mp == nil || mp.NumPolygons() == 0 {
		return 0
	}
	b := mp.Bounds()
	latMid := (b.Min(1) + b.Max(1)) / 2 * math.Pi / 180

	// Metres per degree of latitude and longitude at latMid.
	kx := 111132.92 - 559.82*math.Cos(2*latMid)
	ky := 111412.84 * math.Cos(latMid)

	flat := append([]float64(nil), mp.FlatCoords()...)
	for i := 0; i+1 < len(flat); i += 2 {
		flat[i] = flat[i] * ky / 1000
		flat[i+1] = flat[i+1] * kx / 1000
	}
	scaled := geom.NewMultiPolygonFlat(geom.XY, flat, mp.Endss())
	return math.Abs(scaled.Area())
}

// EffectiveAreaKm2 clamps an area to the density floor.
func EffectiveAreaKm2(areaKm2 float64) float64 {
	if areaKm2 < MinEffectiveAreaKm2 {
		return MinEffectiveAreaKm2
	}
	return areaKm2
}
