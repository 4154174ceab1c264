package models

import "sort"

// HardMapping is one entry in the static Level-0 exact-match table: a
// normalized match key maps directly to a canonical query string, unless
// the source query contains one of SkipIfContains (an accessory token
// that disqualifies the exact match).
type HardMapping struct {
	MatchKey       string
	Canonical      string
	SkipIfContains []string
}

// SortHardMappingsByKeyLength orders mappings by descending raw-key
// length so matching is longest-match-first.
func SortHardMappingsByKeyLength(mappings []HardMapping) []HardMapping {
	sorted := make([]HardMapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].MatchKey) > len(sorted[j].MatchKey)
	})
	return sorted
}

// SynonymRule rewrites a primary query into zero or more alternative
// candidate strings. Every produced candidate must preserve every grade
// token present in the source (digits, pro, max, ultra, fe, plus).
type SynonymRule struct {
	From string
	To   []string
}
