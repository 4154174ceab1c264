package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/resources"
)

func TestNCollapsesWhitespaceAndLowercases(t *testing.T) {
	assert.Equal(t, "galaxy buds pro", N("  Galaxy   Buds PRO "))
}

func TestNInsertsBoundaryBetweenHangulAndLatin(t *testing.T) {
	got := N("갤럭시buds")
	assert.Contains(t, got, " ")
}

func TestNStripsDisallowedPunctuation(t *testing.T) {
	assert.Equal(t, "galaxy buds", N("galaxy!! buds??"))
}

func testResources() *resources.Resources {
	return &resources.Resources{
		HardMappings: []models.HardMapping{
			{MatchKey: "galaxy buds pro", Canonical: "Samsung Galaxy Buds Pro"},
		},
		BrandLexicon:     []string{"Samsung", "Apple"},
		CategoryKeywords: map[models.Category][]string{models.CategoryAudio: {"buds", "earbuds"}},
		CategoryCompat:   map[string][]string{},
	}
}

func TestNormalizeHardMapHit(t *testing.T) {
	n := New(testResources())
	nq := n.Normalize("galaxy buds pro")
	assert.True(t, nq.HardMapped)
	assert.Equal(t, "Samsung Galaxy Buds Pro", nq.Primary)
	assert.Equal(t, []string{"Samsung Galaxy Buds Pro"}, nq.Candidates)
	assert.Equal(t, []bool{false}, nq.GateRequired)
}

func TestNormalizeFallsBackWhenNoHardMap(t *testing.T) {
	n := New(testResources())
	nq := n.Normalize("samsung galaxy buds live")
	assert.False(t, nq.HardMapped)
	assert.NotEmpty(t, nq.Candidates)
	assert.Equal(t, models.CategoryAudio, nq.Category)
	assert.Equal(t, "Samsung", nq.Brand)
}

func TestNormalizeCandidateListCapsAtEight(t *testing.T) {
	n := New(testResources())
	nq := n.Normalize("samsung galaxy buds live case cover")
	assert.LessOrEqual(t, len(nq.Candidates), 8)
}

func TestIsBroadQuery(t *testing.T) {
	n := New(&resources.Resources{BroadQueryKeywords: []string{"phone"}})
	assert.True(t, n.IsBroadQuery("phone"))
	assert.False(t, n.IsBroadQuery("samsung galaxy phone case"))
}
