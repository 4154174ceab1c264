package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortOffersOrdersByPriceThenRank(t *testing.T) {
	offers := []Offer{
		{Rank: 1, Mall: "b-mart", Price: 3000},
		{Rank: 2, Mall: "a-mart", Price: 1000},
		{Rank: 3, Mall: "c-mart", Price: 1000},
	}
	sorted := SortOffers(offers)
	assert.Equal(t, "a-mart", sorted[0].Mall)
	assert.Equal(t, "c-mart", sorted[1].Mall)
	assert.Equal(t, "b-mart", sorted[2].Mall)
	assert.Equal(t, 1, sorted[0].Rank)
	assert.Equal(t, 2, sorted[1].Rank)
	assert.Equal(t, 3, sorted[2].Rank)
}

func TestNewSuccessEnforcesLowestPriceInvariant(t *testing.T) {
	offers := []Offer{
		{Rank: 1, Mall: "b-mart", Price: 5000, Link: "https://b/item"},
		{Rank: 2, Mall: "a-mart", Price: 2000, Link: "https://a/item", FreeShipping: true},
	}
	res := NewSuccess(StatusFastPathSuccess, SourceFastPath, "p1", "galaxy buds pro", offers, 1200)
	assert.Equal(t, int64(2000), res.LowestPrice)
	assert.Equal(t, "https://a/item", res.Link)
	assert.Equal(t, "a-mart", res.Mall)
	assert.True(t, res.FreeShipping)
	assert.Len(t, res.TopOffers, 2)
}

func TestNewSuccessCapsTopOffersAtThree(t *testing.T) {
	offers := []Offer{
		{Rank: 1, Price: 4000}, {Rank: 2, Price: 3000},
		{Rank: 3, Price: 2000}, {Rank: 4, Price: 1000},
	}
	res := NewSuccess(StatusFastPathSuccess, SourceFastPath, "p1", "n", offers, 0)
	assert.Len(t, res.TopOffers, 3)
	assert.Equal(t, int64(1000), res.LowestPrice)
}

func TestAsCacheHitRelabelsStatusAndSource(t *testing.T) {
	res := NewSuccess(StatusFastPathSuccess, SourceFastPath, "p1", "n", []Offer{{Price: 100}}, 0)
	hit := res.AsCacheHit(5)
	assert.Equal(t, StatusCacheHit, hit.Status)
	assert.Equal(t, SourceCache, hit.Source)
	assert.Equal(t, int64(5), hit.ElapsedMs)
}

func TestStatusSuccessful(t *testing.T) {
	assert.True(t, StatusCacheHit.Successful())
	assert.True(t, StatusFastPathSuccess.Successful())
	assert.True(t, StatusSlowPathSuccess.Successful())
	assert.False(t, StatusTimeout.Successful())
	assert.False(t, StatusNotFound.Successful())
}
