package domain

import (
	"fmt"
	"sort"
)

// DetectDuplicateKeys validates that no two AggregatedRecords in the
// same batch share a business key — the uniqueness invariant spec.md §3
// requires for (company, site, metric, granularity, period_label,
// is_forecast). Grounded on the teacher's DetectOverlaps: group, sort,
// compare adjacent entries.
func DetectDuplicateKeys(records []AggregatedRecord) []string {
	type keyed struct {
		key string
		idx int
	}
	keys := make([]keyed, len(records))
	for i, r := range records {
		keys[i] = keyed{key: businessKeyString(r.BusinessKeyFields()), idx: i}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].key < keys[j].key })

	var errs []string
	for i := 1; i < len(keys); i++ {
		if keys[i].key == keys[i-1].key {
			errs = append(errs, fmt.Sprintf(
				"duplicate business key for records %d and %d: %s",
				keys[i-1].idx, keys[i].idx, keys[i].key,
			))
		}
	}
	return errs
}

func businessKeyString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + "=" + fields[k] + "|"
	}
	return s
}

// ValidateObservation checks a RawObservation for the structural
// invariants spec.md §3 names before it is handed to the aggregation
// engine.
func ValidateObservation(o RawObservation) error {
	if o.CompanyID == "" {
		return fmt.Errorf("observation %s: company_id is required", o.ID)
	}
	if o.MetricCode == "" {
		return fmt.Errorf("observation %s: metric_code is required", o.ID)
	}
	if o.Period.IsZero() {
		return fmt.Errorf("observation %s: period is required", o.ID)
	}
	return nil
}
