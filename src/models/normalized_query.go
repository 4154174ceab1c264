package models

// Category is the closed set of product categories the normalizer can
// detect.
type Category string

const (
	CategoryPhone     Category = "phone"
	CategoryLaptop    Category = "laptop"
	CategoryAudio     Category = "audio"
	CategoryFood      Category = "food"
	CategoryAppliance Category = "appliance"
	CategoryOther     Category = "other"
)

// NormalizedQuery is the result of the normalizer: a primary query string
// plus an ordered list of candidate query strings and a detected category.
//
// Invariant: Primary equals Candidates[0]; every candidate is non-empty,
// lowercase and whitespace-normalized.
type NormalizedQuery struct {
	Primary    string
	Candidates []string
	Category   Category
	Brand      string
	Model      string
	// GateRequired is parallel to Candidates: true for candidates produced
	// by Level-2 fallback (meaning-reducing) generation, which must pass
	// the Validation Gate before their result is accepted; false for
	// Level-0/Level-1 candidates, which skip the gate and are accepted
	// whenever their lowest price is positive.
	GateRequired []bool
	// HardMapped reports whether Primary came from an exact Level-0 match.
	HardMapped bool
}
