package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortHardMappingsByKeyLengthOrdersLongestFirst(t *testing.T) {
	mappings := []HardMapping{
		{MatchKey: "buds"},
		{MatchKey: "galaxy buds pro"},
		{MatchKey: "galaxy buds"},
	}
	sorted := SortHardMappingsByKeyLength(mappings)
	assert.Equal(t, "galaxy buds pro", sorted[0].MatchKey)
	assert.Equal(t, "galaxy buds", sorted[1].MatchKey)
	assert.Equal(t, "buds", sorted[2].MatchKey)
}

func TestSortHardMappingsByKeyLengthDoesNotMutateInput(t *testing.T) {
	original := []HardMapping{{MatchKey: "a"}, {MatchKey: "abc"}}
	_ = SortHardMappingsByKeyLength(original)
	assert.Equal(t, "a", original[0].MatchKey)
}
