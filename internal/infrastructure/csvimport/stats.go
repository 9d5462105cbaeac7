package csvimport

import "sort"

// Statistics summarizes a parsed catalog
type Statistics struct {
	Products   int      `json:"products"`
	Variants   int      `json:"variants"`
	Images     int      `json:"images"`
	Categories []string `json:"categories"`
	Vendors    []string `json:"vendors"`
}

// ComputeStatistics aggregates parsed records; counts always agree with the
// records the import pipeline receives.
func ComputeStatistics(records []ProductRecord) Statistics {
	stats := Statistics{Products: len(records)}
	categories := make(map[string]struct{})
	vendors := make(map[string]struct{})

	for i := range records {
		r := &records[i]
		stats.Variants += len(r.Variants)
		stats.Images += len(r.Images)
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
		if r.Vendor != "" {
			vendors[r.Vendor] = struct{}{}
		}
	}

	stats.Categories = sortedKeys(categories)
	stats.Vendors = sortedKeys(vendors)
	return stats
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
