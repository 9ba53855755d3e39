package geo

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/names"
)

var (
	districtIDProps   = []string{"district_id", "bezirk_id", "bez"}
	districtProps     = []string{"district", "bezirk", "bezname", "bez_name"}
	neighborhoodProps = []string{"neighborhood", "ortsteil", "otname", "name"}
)

// LoadNeighborhoods reads the neighborhood polygon layer, dispatching on
// the file extension: GeoJSON, CSV with a geometry column, or Shapefile.
func LoadNeighborhoods(path string) ([]*model.Region, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return loadNeighborhoodsGeoJSON(path)
	case ".csv":
		return loadNeighborhoodsCSV(path)
	case ".shp":
		return loadNeighborhoodsShapefile(path)
	default:
		return nil, eris.Errorf("geo: unsupported polygon format %q", filepath.Ext(path))
	}
}

// NewNeighborhood builds a neighborhood region, deriving the canonical
// name and both area figures from the geometry.
func NewNeighborhood(districtID, district, neighborhood string, mp *geom.MultiPolygon) *model.Region {
	area := AreaKm2(mp)
	return &model.Region{
		Level:        model.LevelNeighborhood,
		DistrictID:   districtID,
		District:     district,
		Neighborhood: neighborhood,
		CanonName:    names.Canon(neighborhood),
		AreaKm2:      area,
		AreaEffKm2:   EffectiveAreaKm2(area),
		Geometry:     mp,
	}
}

func loadNeighborhoodsGeoJSON(path string) ([]*model.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read geojson")
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: parse geojson")
	}

	var regions []*model.Region
	for i, feat := range fc.Features {
		mp := toMultiPolygon(feat.Geometry)
		if mp == nil {
			zap.L().Debug("geo: skipping non-polygon feature", zap.Int("index", i))
			continue
		}
		districtID := property(feat.Properties, districtIDProps)
		district := property(feat.Properties, districtProps)
		name := property(feat.Properties, neighborhoodProps)
		if name == "" {
			return nil, eris.Errorf("geo: feature %d has no neighborhood name property", i)
		}
		regions = append(regions, NewNeighborhood(districtID, district, name, mp))
	}
	if len(regions) == 0 {
		return nil, eris.New("geo: no polygon features in geojson")
	}
	return regions, nil
}

func loadNeighborhoodsCSV(path string) ([]*model.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open polygon csv")
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "geo: read polygon csv header")
	}
	geomIdx := findColumn(header, []string{"geometry", "geom", "wkt"})
	if geomIdx < 0 {
		return nil, eris.Errorf("geo: no geometry column in header %v", header)
	}
	idIdx := findColumn(header, districtIDProps)
	districtIdx := findColumn(header, districtProps)
	nameIdx := findColumn(header, neighborhoodProps)
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: no neighborhood column in header %v", header)
	}

	var regions []*model.Region
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "geo: read polygon csv row")
		}
		if geomIdx >= len(record) || nameIdx >= len(record) {
			continue
		}
		g, err := parseGeometry(record[geomIdx])
		if err != nil {
			return nil, eris.Wrapf(err, "geo: row %q", record[nameIdx])
		}
		mp := toMultiPolygon(g)
		if mp == nil {
			continue
		}
		var districtID, district string
		if idIdx >= 0 && idIdx < len(record) {
			districtID = record[idIdx]
		}
		if districtIdx >= 0 && districtIdx < len(record) {
			district = record[districtIdx]
		}
		regions = append(regions, NewNeighborhood(districtID, district, record[nameIdx], mp))
	}
	if len(regions) == 0 {
		return nil, eris.New("geo: no polygon rows in csv")
	}
	return regions, nil
}

// parseGeometry accepts WKT or hex-encoded EWKB.
func parseGeometry(s string) (geom.T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, eris.New("geo: empty geometry cell")
	}
	if raw, err := hex.DecodeString(s); err == nil {
		g, err := ewkb.Unmarshal(raw)
		if err == nil {
			return g, nil
		}
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "geo: parse geometry")
	}
	return g, nil
}

func toMultiPolygon(g geom.T) *geom.MultiPolygon {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(t.SRID())
		if err := mp.Push(t); err != nil {
			return nil
		}
		return mp
	default:
		return nil
	}
}

func property(props map[string]interface{}, candidates []string) string {
	for key, v := range props {
		lk := strings.ToLower(key)
		for _, c := range candidates {
			if lk != c {
				continue
			}
			switch val := v.(type) {
			case string:
				return val
			case float64:
				return strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}
	return ""
}

// DeriveDistricts groups neighborhoods by district id and collects their
// polygons into one region per district. Areas are summed rather than
// recomputed, so slivers shared between neighborhoods are not counted
// twice.
func DeriveDistricts(hoods []*model.Region) []*model.Region {
	byID := make(map[string]*model.Region)
	var order []string
	for _, h := range hoods {
		d, ok := byID[h.DistrictID]
		if !ok {
			d = &model.Region{
				Level:      model.LevelDistrict,
				DistrictID: h.DistrictID,
				District:   h.District,
				CanonName:  names.Canon(h.District),
				Geometry:   geom.NewMultiPolygon(geom.XY).SetSRID(4326),
			}
			byID[h.DistrictID] = d
			order = append(order, h.DistrictID)
		}
		d.AreaKm2 += h.AreaKm2
		if h.Geometry != nil {
			for i := 0; i < h.Geometry.NumPolygons(); i++ {
				if err := d.Geometry.Push(h.Geometry.Polygon(i)); err != nil {
					zap.L().Debug("geo: skipping malformed district part",
						zap.String("district", h.District), zap.Error(err))
				}
			}
		}
	}

	sort.Strings(order)
	out := make([]*model.Region, 0, len(order))
	for _, id := range order {
		d := byID[id]
		d.AreaEffKm2 = EffectiveAreaKm2(d.AreaKm2)
		out = append(out, d)
	}
	return out
}

// NewFeatureCollection builds a GeoJSON FeatureCollection from regions.
// props supplies extra per-region properties, typically the wide-table
// metric columns.
func NewFeatureCollection(regions []*model.Region, props func(*model.Region) map[string]interface{}) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for _, r := range regions {
		p := map[string]interface{}{
			"region_key":  r.Key(),
			"district_id": r.DistrictID,
			"district":    r.District,
			"level":       string(r.Level),
			"area_km2":    r.AreaKm2,
		}
		if r.Level == model.LevelNeighborhood {
			p["neighborhood"] = r.Neighborhood
		}
		if props != nil {
			for k, v := range props(r) {
				p[k] = v
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.Key(),
			Geometry:   r.Geometry,
			Properties: p,
		})
	}
	return fc
}

// WriteFeatureCollection writes regions as a GeoJSON FeatureCollection.
func WriteFeatureCollection(path string, regions []*model.Region, props func(*model.Region) map[string]interface{}) error {
	data, err := json.Marshal(NewFeatureCollection(regions, props))
	if err != nil {
		return eris.Wrap(err, "geo: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "geo: write feature collection")
	}
	return nil
}
