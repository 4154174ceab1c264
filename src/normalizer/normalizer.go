// Package normalizer transforms a raw product name into a canonical
// primary query plus an ordered list of progressively broader fallback
// candidates, per the three strictly-ordered levels of the normalization
// pipeline: hard map, synonym expansion, fallback candidate generation.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/resources"
)

var gradeTokenPattern = regexp.MustCompile(`\d+|pro|max|ultra|fe|plus`)

// Normalizer holds the static resource tables loaded at startup.
type Normalizer struct {
	res *resources.Resources
}

// New constructs a Normalizer over the given resource tables.
func New(res *resources.Resources) *Normalizer {
	return &Normalizer{res: res}
}

// N is the normalization function shared between raw queries and
// hard-mapping keys, so exact equality between them is well-defined.
func N(s string) string {
	s = strings.ToLower(s)
	s = collapseWhitespace(s)

	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		if i+1 < len(runes) {
			next := runes[i+1]
			if isHangulLatinBoundary(r, next) {
				b.WriteRune(' ')
			}
		}
	}
	s = b.String()

	s = stripDisallowed(s)
	s = collapseWhitespace(s)
	return s
}

func isHangulLatinBoundary(a, b rune) bool {
	aHangul, bHangul := unicode.Is(unicode.Hangul, a), unicode.Is(unicode.Hangul, b)
	aLatin, bLatin := isLatinLetter(a), isLatinLetter(b)
	return (aHangul && bLatin) || (aLatin && bHangul)
}

func isLatinLetter(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}

func stripDisallowed(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Hangul, r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func gradeTokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range gradeTokenPattern.FindAllString(strings.ToLower(s), -1) {
		out[m] = true
	}
	return out
}

// preservesGradeTokens reports whether every grade token in source also
// appears in candidate.
func preservesGradeTokens(source, candidate string) bool {
	for tok := range gradeTokens(source) {
		if !strings.Contains(strings.ToLower(candidate), tok) {
			return false
		}
	}
	return true
}

func containsAny(haystack string, tokens []string) bool {
	lower := strings.ToLower(haystack)
	for _, t := range tokens {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func containsBrand(s string, brands []string) bool {
	return containsAny(s, brands)
}

func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// Normalize runs the three-level pipeline against a raw product name.
func (n *Normalizer) Normalize(raw string) models.NormalizedQuery {
	if nq, ok := n.tryHardMap(raw); ok {
		return nq
	}
	return n.expandAndFallback(raw)
}

// tryHardMap implements Level 0.
func (n *Normalizer) tryHardMap(raw string) (models.NormalizedQuery, bool) {
	if containsAny(raw, n.res.AccessoryTokens) {
		return models.NormalizedQuery{}, false
	}
	q := N(raw)
	for _, hm := range n.res.HardMappings {
		if containsAny(q, hm.SkipIfContains) {
			continue
		}
		if N(hm.MatchKey) != q {
			continue
		}
		if !containsBrand(hm.Canonical, n.res.BrandLexicon) {
			continue
		}
		if !preservesGradeTokens(raw, hm.Canonical) {
			continue
		}
		category, brand, model := n.classify(hm.Canonical)
		return models.NormalizedQuery{
			Primary:      hm.Canonical,
			Candidates:   []string{hm.Canonical},
			Category:     category,
			Brand:        brand,
			Model:        model,
			GateRequired: []bool{false},
			HardMapped:   true,
		}, true
	}
	return models.NormalizedQuery{}, false
}

// expandAndFallback implements Levels 1 and 2. Level 1 always runs;
// Level 2 candidates are appended afterward since the orchestrator
// iterates the full candidate list and the Validation Gate is what
// actually distinguishes a Level-2 candidate's acceptance criteria.
func (n *Normalizer) expandAndFallback(raw string) models.NormalizedQuery {
	q := N(raw)

	qStripped := q
	for _, tok := range n.res.ColorTokens {
		qStripped = strings.ReplaceAll(qStripped, strings.ToLower(tok), "")
	}
	for _, tok := range n.res.ConditionTokens {
		qStripped = strings.ReplaceAll(qStripped, strings.ToLower(tok), "")
	}
	qStripped = collapseWhitespace(qStripped)

	qHangul := n.transliterate(qStripped, true)
	qLatin := n.transliterate(qStripped, false)

	level1 := []string{q, qStripped, qHangul, qLatin}
	level1 = filterGradePreserving(raw, level1)
	level1 = dedup(level1)

	category, brand, model := n.classify(q)

	level2 := n.fallbackCandidates(brand, model, category)
	level2 = filterGradePreserving(raw, level2)

	candidates := dedup(append(level1, level2...))
	if len(candidates) == 0 {
		candidates = []string{q}
	}
	if len(candidates) > 8 {
		candidates = candidates[:8]
	}

	level1Set := make(map[string]bool, len(level1))
	for _, c := range level1 {
		level1Set[c] = true
	}
	gateRequired := make([]bool, len(candidates))
	for i, c := range candidates {
		gateRequired[i] = !level1Set[c]
	}

	return models.NormalizedQuery{
		Primary:      candidates[0],
		Candidates:   candidates,
		Category:     category,
		Brand:        brand,
		Model:        model,
		GateRequired: gateRequired,
	}
}

func filterGradePreserving(raw string, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" && preservesGradeTokens(raw, c) {
			out = append(out, c)
		}
	}
	return out
}

// transliterate applies the synonym table, keeping only rewrites that
// land in the requested script (Hangul-heavy or Latin-heavy).
func (n *Normalizer) transliterate(q string, hangul bool) string {
	result := q
	for _, rule := range n.res.SynonymRules {
		if !strings.Contains(result, strings.ToLower(rule.From)) {
			continue
		}
		for _, to := range rule.To {
			if hangul == hasHangul(to) {
				result = strings.ReplaceAll(result, strings.ToLower(rule.From), strings.ToLower(to))
				break
			}
		}
	}
	return collapseWhitespace(result)
}

func hasHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// classify extracts {brand, model, category} via keyword tables: category
// by first-match against the category keyword set, brand by the brand
// lexicon, model as the residual after removing both.
func (n *Normalizer) classify(q string) (category models.Category, brand string, model string) {
	category = models.CategoryOther
	for _, cat := range []models.Category{
		models.CategoryPhone, models.CategoryLaptop, models.CategoryAudio,
		models.CategoryFood, models.CategoryAppliance,
	} {
		if containsAny(q, n.res.CategoryKeywords[cat]) {
			category = cat
			break
		}
	}

	lower := strings.ToLower(q)
	for _, b := range n.res.BrandLexicon {
		if strings.Contains(lower, strings.ToLower(b)) {
			brand = b
			break
		}
	}

	model = lower
	if brand != "" {
		model = strings.ReplaceAll(model, strings.ToLower(brand), "")
	}
	for _, kws := range n.res.CategoryKeywords {
		for _, kw := range kws {
			model = strings.ReplaceAll(model, strings.ToLower(kw), "")
		}
	}
	model = collapseWhitespace(model)

	return category, brand, model
}

// fallbackCandidates implements Level 2's emission order:
// [brand+model, model, brand, category_tag].
func (n *Normalizer) fallbackCandidates(brand, model string, category models.Category) []string {
	var out []string
	if brand != "" && model != "" {
		out = append(out, collapseWhitespace(brand+" "+model))
	}
	if model != "" {
		out = append(out, model)
	}
	if brand != "" {
		out = append(out, brand)
	}
	if category != "" && category != models.CategoryOther {
		out = append(out, string(category))
	}
	return out
}

// IsBroadQuery reports whether the normalized primary query matches the
// broad-query rule: at most two tokens and contains a broad keyword.
func (n *Normalizer) IsBroadQuery(primary string) bool {
	tokens := strings.Fields(primary)
	if len(tokens) > 2 {
		return false
	}
	return containsAny(primary, n.res.BroadQueryKeywords)
}
