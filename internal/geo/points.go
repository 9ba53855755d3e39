package geo

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Point is a lon/lat coordinate with an optional name attribute.
type Point struct {
	Lon  float64
	Lat  float64
	Name string
}

var (
	latColumns  = []string{"lat", "latitude", "y", "breite"}
	lonColumns  = []string{"lon", "lng", "long", "longitude", "x", "laenge"}
	nameColumns = []string{"name", "station", "stop_name"}
)

func findColumn(header []string, candidates []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if h == c {
				return i
			}
		}
	}
	return -1
}

// ReadPoints parses a point CSV, inferring the coordinate columns from
// the header. Rows with unparseable coordinates are skipped.
func ReadPoints(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "geo: read point header")
	}
	latIdx := findColumn(header, latColumns)
	lonIdx := findColumn(header, lonColumns)
	if latIdx < 0 || lonIdx < 0 {
		return nil, eris.Errorf("geo: no lat/lon columns in header %v", header)
	}
	nameIdx := findColumn(header, nameColumns)

	var pts []Point
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "geo: read point row")
		}
		if latIdx >= len(record) || lonIdx >= len(record) {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[lonIdx]), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		pt := Point{Lon: lon, Lat: lat}
		if nameIdx >= 0 && nameIdx < len(record) {
			pt.Name = record[nameIdx]
		}
		pts = append(pts, pt)
	}
	return pts, nil
}

// ReadPointsFile reads a point CSV from disk.
func ReadPointsFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open point file")
	}
	defer f.Close()
	return ReadPoints(f)
}
