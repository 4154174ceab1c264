// Package validationgate rejects seemingly-successful results that
// implausibly match the original input. It runs only behind Level-2
// normalizer candidates, where a meaning-reduction makes a false-positive
// match possible.
package validationgate

import (
	"strings"

	"github.com/priceradar/pricesearch-engine/src/resources"
)

const jaccardThreshold = 0.30

// Gate holds the resource tables needed to evaluate category compatibility
// and brand equality.
type Gate struct {
	res *resources.Resources
}

// New constructs a Gate over the given resource tables.
func New(res *resources.Resources) *Gate {
	return &Gate{res: res}
}

// Accept evaluates the four acceptance criteria against the original raw
// input and a candidate result's product name and price. Rejection means
// the orchestrator should move on to the next candidate, not fail the
// request.
func (g *Gate) Accept(rawInput, originalCategory, resultName, resultCategory string, price int64) bool {
	if !g.categoriesCompatible(originalCategory, resultCategory) {
		return false
	}
	if jaccard(tokenize(rawInput), tokenize(resultName)) < jaccardThreshold {
		return false
	}
	if !g.brandsCompatible(rawInput, resultName) {
		return false
	}
	if price <= 0 {
		return false
	}
	return true
}

func (g *Gate) categoriesCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	if a == b {
		return true
	}
	for _, compat := range g.res.CategoryCompat[a] {
		if compat == b {
			return true
		}
	}
	for _, compat := range g.res.CategoryCompat[b] {
		if compat == a {
			return true
		}
	}
	return false
}

func (g *Gate) brandsCompatible(a, b string) bool {
	brandA := g.findBrand(a)
	brandB := g.findBrand(b)
	if brandA == "" || brandB == "" {
		return true
	}
	return strings.EqualFold(brandA, brandB)
}

func (g *Gate) findBrand(s string) string {
	lower := strings.ToLower(s)
	for _, b := range g.res.BrandLexicon {
		if strings.Contains(lower, strings.ToLower(b)) {
			return b
		}
	}
	return ""
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = true
	}
	return out
}

// jaccard computes the Jaccard similarity of two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
