package engine

import (
	"salesdash/internal/models"
)

// Filter returns the records whose order date lies in [c.Start, c.End] and
// whose store and category are both allowed, in input order. An inverted date
// range or an empty store/category set yields an empty, non-nil slice.
// records is not modified.
func Filter(records []models.SalesRecord, c models.FilterConstraints) []models.SalesRecord {
	lo, hi := dateKey(c.Start), dateKey(c.End)
	out := make([]models.SalesRecord, 0)
	if lo > hi || len(c.Stores) == 0 || len(c.Categories) == 0 {
		return out
	}

	stores := toSet(c.Stores)
	categories := toSet(c.Categories)

	for _, r := range records {
		k := dateKey(r.OrderDate)
		if k < lo || k > hi {
			continue
		}
		if _, ok := stores[r.Store]; !ok {
			continue
		}
		if _, ok := categories[r.Category]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
