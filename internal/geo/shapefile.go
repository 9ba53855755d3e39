package geo

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/model"
)

// loadNeighborhoodsShapefile reads a polygon shapefile whose attribute
// table carries the district and neighborhood names.
func loadNeighborhoodsShapefile(path string) ([]*model.Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer reader.Close()

	fields := reader.Fields()
	idIdx, districtIdx, nameIdx := -1, -1, -1
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		switch {
		case fieldMatches(name, districtIDProps):
			idIdx = i
		case fieldMatches(name, districtProps):
			districtIdx = i
		case fieldMatches(name, neighborhoodProps):
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, eris.New("geo: shapefile has no neighborhood name field")
	}

	var regions []*model.Region
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			zap.L().Debug("geo: skipping non-polygon shape", zap.Int("record", n))
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			continue
		}
		var districtID, district string
		if idIdx >= 0 {
			districtID = reader.ReadAttribute(n, idIdx)
		}
		if districtIdx >= 0 {
			district = reader.ReadAttribute(n, districtIdx)
		}
		regions = append(regions, NewNeighborhood(districtID, district, reader.ReadAttribute(n, nameIdx), mp))
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "geo: read shapefile")
	}
	if len(regions) == 0 {
		return nil, eris.New("geo: no polygon records in shapefile")
	}
	return regions, nil
}

func fieldMatches(name string, candidates []string) bool {
	for _, c := range candidates {
		if name == c {
			return true
		}
	}
	return false
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// one polygon per part.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
