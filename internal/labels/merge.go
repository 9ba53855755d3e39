package labels

import (
	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
)

// BaseTable seeds a wide table with the region identity columns so every
// region keeps a row even when a feature has nothing to say about it.
func BaseTable(regions []*model.Region) *dataset.WideTable {
	t := dataset.NewWideTable()
	for _, r := range regions {
		key := r.Key()
		t.Set(key, "district_id", r.DistrictID)
		t.Set(key, "district", r.District)
		if r.Level == model.LevelNeighborhood {
			t.Set(key, "neighborhood", r.Neighborhood)
		}
		t.SetFloat(key, "area_km2", r.AreaKm2)
	}
	return t
}

// MergeAll joins feature tables onto the base table by region key.
func MergeAll(base *dataset.WideTable, features ...*dataset.WideTable) *dataset.WideTable {
	for _, f := range features {
		if f != nil {
			base.Merge(f)
		}
	}
	return base
}
