package validationgate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceradar/pricesearch-engine/src/resources"
)

func testResources() *resources.Resources {
	return &resources.Resources{
		BrandLexicon: []string{"samsung", "apple"},
		CategoryCompat: map[string][]string{
			"phone": {"accessory"},
		},
	}
}

func TestAcceptPassesOnCloseMatch(t *testing.T) {
	g := New(testResources())
	ok := g.Accept("samsung galaxy s23 ultra", "phone", "samsung galaxy s23 ultra 256gb", "phone", 999000)
	assert.True(t, ok)
}

func TestAcceptRejectsIncompatibleCategory(t *testing.T) {
	g := New(testResources())
	ok := g.Accept("samsung galaxy s23", "phone", "samsung galaxy s23 case", "case", 10000)
	assert.False(t, ok)
}

func TestAcceptRejectsBrandMismatch(t *testing.T) {
	g := New(testResources())
	ok := g.Accept("samsung galaxy s23", "phone", "apple galaxy s23", "phone", 999000)
	assert.False(t, ok)
}

func TestAcceptRejectsNonPositivePrice(t *testing.T) {
	g := New(testResources())
	ok := g.Accept("samsung galaxy s23", "phone", "samsung galaxy s23", "phone", 0)
	assert.False(t, ok)
}

func TestAcceptRejectsLowTokenOverlap(t *testing.T) {
	g := New(testResources())
	ok := g.Accept("samsung galaxy s23 ultra", "phone", "totally unrelated listing here", "phone", 10000)
	assert.False(t, ok)
}

func TestAcceptCompatibleCategoryBothDirections(t *testing.T) {
	g := New(testResources())
	assert.True(t, g.categoriesCompatible("phone", "accessory"))
	assert.True(t, g.categoriesCompatible("accessory", "phone"))
	assert.True(t, g.categoriesCompatible("", "phone"))
}
