package domain

import "sort"

// DetailSignature is the sorted-key-and-value string used to decide
// whether two dimension elements describe the same breakdown, per
// spec.md §4.6 ("same ... iff their detail lists are equal when sorted
// lexicographically by key").
func DetailSignature(details []DetailPair) string {
	sorted := make([]DetailPair, len(details))
	copy(sorted, details)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})
	sig := ""
	for _, d := range sorted {
		sig += d.Key + "=" + d.Value + ";"
	}
	return sig
}

// MergeDimensions merges a flat list of DimensionElements — gathered
// from every RawObservation or AggregatedRecord being folded into one
// canonical record — by detail signature. Elements sharing a signature
// are merged by summing qty and value and keeping the first observed
// unit, currency, and detail ordering, per spec.md §4.6. Elements with
// no details are ignored. The result is ordered by first appearance.
func MergeDimensions(elements []DimensionElement) []DimensionElement {
	order := make([]string, 0, len(elements))
	groups := make(map[string]*DimensionElement, len(elements))

	for _, e := range elements {
		if len(e.Details) == 0 {
			continue
		}
		sig := DetailSignature(e.Details)
		g, ok := groups[sig]
		if !ok {
			g = &DimensionElement{Details: e.Details, Unit: e.Unit, Currency: e.Currency}
			groups[sig] = g
			order = append(order, sig)
		}
		g.Qty += e.Qty
		g.Value = g.Value.Add(e.Value)
	}

	merged := make([]DimensionElement, 0, len(order))
	for _, sig := range order {
		merged = append(merged, *groups[sig])
	}
	return merged
}
