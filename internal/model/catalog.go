package model

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed metrics.yaml
var defaultCatalogYAML []byte

// Metric describes one selectable suitability metric: which wide-table
// column feeds it and how it is presented and scaled.
type Metric struct {
	Key           string  `yaml:"key" json:"key"`
	Column        string  `yaml:"column" json:"column"`
	Title         string  `yaml:"title" json:"title"`
	Description   string  `yaml:"description" json:"description"`
	Inverse       bool    `yaml:"inverse" json:"inverse"`
	Levels        []Level `yaml:"levels" json:"levels"`
	DefaultWeight int     `yaml:"default_weight" json:"default_weight"`
}

// HasLevel reports whether the metric applies at the given level.
func (m Metric) HasLevel(l Level) bool {
	for _, ml := range m.Levels {
		if ml == l {
			return true
		}
	}
	return false
}

// Catalog is the ordered list of known metrics.
type Catalog struct {
	Metrics []Metric `yaml:"metrics"`
}

// DefaultCatalog parses the embedded metric definitions.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// ParseCatalog reads a YAML catalog and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "model: parse metric catalog")
	}
	seen := make(map[string]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if m.Key == "" || m.Column == "" {
			return nil, eris.Errorf("model: metric %q missing key or column", m.Key)
		}
		if seen[m.Key] {
			return nil, eris.Errorf("model: duplicate metric key %q", m.Key)
		}
		seen[m.Key] = true
		if m.DefaultWeight < 0 || m.DefaultWeight > 100 {
			return nil, eris.Errorf("model: metric %q default weight out of range", m.Key)
		}
	}
	return &c, nil
}

// Find returns the metric with the given key.
func (c *Catalog) Find(key string) (Metric, bool) {
	for _, m := range c.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// ForLevel returns the metrics applicable at the given level, in catalog
// order.
func (c *Catalog) ForLevel(l Level) []Metric {
	var out []Metric
	for _, m := range c.Metrics {
		if m.HasLevel(l) {
			out = append(out, m)
		}
	}
	return out
}

// Available filters ForLevel down to metrics whose source column the
// loaded data actually has. A metric without data is unavailable, not an
// error.
func (c *Catalog) Available(l Level, hasColumn func(string) bool) []Metric {
	var out []Metric
	for _, m := range c.ForLevel(l) {
		if hasColumn(m.Column) {
			out = append(out, m)
		}
	}
	return out
}
