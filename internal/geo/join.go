package geo

import (
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/kiezlabs/kiezscout/internal/model"
)

// Contains reports whether the multipolygon contains the lon/lat point.
// The bounding box is checked first; the full test walks each polygon's
// outer ring and subtracts its holes.
func Contains(mp *geom.MultiPolygon, lon, lat float64) bool {
	if mp == nil || mp.NumPolygons() == 0 {
		return false
	}
	c := geom.Coord{lon, lat}
	if !mp.Bounds().OverlapsPoint(geom.XY, c) {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for j := 1; j < p.NumLinearRings(); j++ {
			if xy.IsPointInRing(p.Layout(), c, p.LinearRing(j).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// CountWithin buckets points into regions by containment, keyed by region
// key. Points outside every region are dropped. Regions that contain no
// points still get a zero entry so downstream densities see an explicit 0
// rather than a missing value.
func CountWithin(regions []*model.Region, points []Point) map[string]int {
	counts := make(map[string]int, len(regions))
	for _, r := range regions {
		counts[r.Key()] = 0
	}
	for _, pt := range points {
		for _, r := range regions {
			if Contains(r.Geometry, pt.Lon, pt.Lat) {
				counts[r.Key()]++
				break
			}
		}
	}
	return counts
}

// Locate returns the first region containing the point, or nil.
func Locate(regions []*model.Region, lon, lat float64) *model.Region {
	for _, r := range regions {
		if Contains(r.Geometry, lon, lat) {
			return r
		}
	}
	return nil
}
