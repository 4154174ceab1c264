// Package resources loads the static rule tables the normalizer and
// validation gate consult: the hard-mapping table, synonym rules,
// accessory/color/condition token lists, category keywords, and the
// brand lexicon. All of it is read once at startup from YAML files via
// yaml.v3 and treated as read-only afterward.
package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/priceradar/pricesearch-engine/src/models"
)

// Resources bundles every static rule table consumed by the normalizer
// and validation gate.
type Resources struct {
	HardMappings       []models.HardMapping
	SynonymRules       []models.SynonymRule
	AccessoryTokens    []string
	ColorTokens        []string
	ConditionTokens    []string
	BroadQueryKeywords []string
	CategoryKeywords   map[models.Category][]string
	BrandLexicon       []string
	CategoryCompat     map[string][]string
	Selectors          Selectors
}

// Selectors holds the CSS selectors the site adapter uses to pull a
// product code, detail link, and offer fields out of the aggregator's
// list and detail pages.
type Selectors struct {
	ListItem       string `yaml:"list_item"`
	ProductLink    string `yaml:"product_link"`
	ProductIDAttr  string `yaml:"product_id_attr"`
	DetailName     string `yaml:"detail_name"`
	OfferRow       string `yaml:"offer_row"`
	OfferMall      string `yaml:"offer_mall"`
	OfferPrice     string `yaml:"offer_price"`
	OfferShipping  string `yaml:"offer_shipping"`
	OfferDelivery  string `yaml:"offer_delivery"`
	OfferLink      string `yaml:"offer_link"`
	BlockedMarkers []string `yaml:"blocked_markers"`
}

type hardMapFile struct {
	Entries []struct {
		MatchKey       string   `yaml:"match_key"`
		Canonical      string   `yaml:"canonical"`
		SkipIfContains []string `yaml:"skip_if_contains"`
	} `yaml:"entries"`
}

type synonymFile struct {
	Rules []struct {
		From string   `yaml:"from"`
		To   []string `yaml:"to"`
	} `yaml:"rules"`
}

type tokensFile struct {
	Accessory   []string `yaml:"accessory"`
	Color       []string `yaml:"color"`
	Condition   []string `yaml:"condition"`
	BroadQuery  []string `yaml:"broad_query"`
}

type categoriesFile struct {
	Keywords       map[string][]string `yaml:"keywords"`
	Compatibility  map[string][]string `yaml:"compatibility"`
}

type brandsFile struct {
	Brands []string `yaml:"brands"`
}

// Load reads every resource file under dir. Missing files are treated as
// empty tables rather than errors, so a partial deployment degrades
// gracefully instead of failing startup.
func Load(dir string) (*Resources, error) {
	r := &Resources{
		CategoryKeywords: make(map[models.Category][]string),
		CategoryCompat:   make(map[string][]string),
	}

	var hm hardMapFile
	if err := readYAML(filepath.Join(dir, "hardmap.yaml"), &hm); err != nil {
		return nil, fmt.Errorf("load hardmap.yaml: %w", err)
	}
	for _, e := range hm.Entries {
		r.HardMappings = append(r.HardMappings, models.HardMapping{
			MatchKey:       e.MatchKey,
			Canonical:      e.Canonical,
			SkipIfContains: e.SkipIfContains,
		})
	}
	r.HardMappings = models.SortHardMappingsByKeyLength(r.HardMappings)

	var syn synonymFile
	if err := readYAML(filepath.Join(dir, "synonyms.yaml"), &syn); err != nil {
		return nil, fmt.Errorf("load synonyms.yaml: %w", err)
	}
	for _, rule := range syn.Rules {
		r.SynonymRules = append(r.SynonymRules, models.SynonymRule{From: rule.From, To: rule.To})
	}

	var tok tokensFile
	if err := readYAML(filepath.Join(dir, "tokens.yaml"), &tok); err != nil {
		return nil, fmt.Errorf("load tokens.yaml: %w", err)
	}
	r.AccessoryTokens = tok.Accessory
	r.ColorTokens = tok.Color
	r.ConditionTokens = tok.Condition
	r.BroadQueryKeywords = tok.BroadQuery

	var cat categoriesFile
	if err := readYAML(filepath.Join(dir, "categories.yaml"), &cat); err != nil {
		return nil, fmt.Errorf("load categories.yaml: %w", err)
	}
	for k, v := range cat.Keywords {
		r.CategoryKeywords[models.Category(k)] = v
	}
	r.CategoryCompat = cat.Compatibility

	var br brandsFile
	if err := readYAML(filepath.Join(dir, "brands.yaml"), &br); err != nil {
		return nil, fmt.Errorf("load brands.yaml: %w", err)
	}
	r.BrandLexicon = br.Brands

	var sel Selectors
	if err := readYAML(filepath.Join(dir, "selectors.yaml"), &sel); err != nil {
		return nil, fmt.Errorf("load selectors.yaml: %w", err)
	}
	r.Selectors = sel

	return r, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, out)
}
