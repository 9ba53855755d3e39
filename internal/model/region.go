// Package model holds the shared domain types: regions, the metric
// catalog, and build-run records.
package model

import (
	geom "github.com/twpayne/go-geom"
)

// Level distinguishes the two aggregation levels regions come in.
type Level string

const (
	LevelNeighborhood Level = "neighborhood"
	LevelDistrict     Level = "district"
)

// ParseLevel maps a user-supplied string to a Level.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelNeighborhood, LevelDistrict:
		return Level(s), true
	}
	return "", false
}

// Region is one polygon feature of a level: a neighborhood inside its
// district, or a whole district. Geometry is WGS84 lon/lat.
type Region struct {
	Level        Level   `json:"level"`
	DistrictID   string  `json:"district_id"`
	District     string  `json:"district"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	CanonName    string  `json:"canon_name"`
	AreaKm2      float64 `json:"area_km2"`
	AreaEffKm2   float64 `json:"area_eff_km2"`

	Geometry *geom.MultiPolygon `json:"-"`
}

// Key returns the stable join key used across every feature table.
// Neighborhood names repeat across districts, so neighborhoods are keyed
// by district id plus canonical name; districts by district id alone.
func (r *Region) Key() string {
	if r.Level == LevelDistrict {
		return r.DistrictID
	}
	return r.DistrictID + "/" + r.CanonName
}

// DisplayName returns the human-facing name for tables and map popups.
func (r *Region) DisplayName() string {
	if r.Level == LevelDistrict {
		return r.District
	}
	return r.Neighborhood
}
