package siteadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/resources"
)

func testSelectors() resources.Selectors {
	return resources.Selectors{
		ListItem:      ".product-item",
		ProductLink:   "a.product-link",
		ProductIDAttr: "data-product-id",
		DetailName:    "h1.product-title",
		OfferRow:      "tr.offer-row",
		OfferMall:     ".mall",
		OfferPrice:    ".price",
		OfferShipping: ".shipping",
		OfferDelivery: ".delivery",
		OfferLink:     "a.buy-link",
	}
}

func TestIsBlockedByStatusCode(t *testing.T) {
	assert.True(t, IsBlocked("<html></html>", 429, nil))
	assert.True(t, IsBlocked("<html></html>", 403, nil))
	assert.False(t, IsBlocked("<html></html>", 200, nil))
}

func TestIsBlockedByMarker(t *testing.T) {
	assert.True(t, IsBlocked("<html>please verify you are human</html>", 200, []string{"verify you are human"}))
	assert.False(t, IsBlocked("<html>normal page</html>", 200, []string{"verify you are human"}))
}

func TestParseListPageExtractsFirstProduct(t *testing.T) {
	html := `
	<html><body>
	<div class="product-item"><a class="product-link" data-product-id="p-123" href="https://aggregator.example.com/product/p-123">Item</a></div>
	<div class="product-item"><a class="product-link" data-product-id="p-456" href="https://aggregator.example.com/product/p-456">Item 2</a></div>
	</body></html>`

	id, href, err := ParseListPage(html, testSelectors())
	require.NoError(t, err)
	assert.Equal(t, "p-123", id)
	assert.Equal(t, "https://aggregator.example.com/product/p-123", href)
}

func TestParseListPageNotFoundWhenProductMentionedButNoItems(t *testing.T) {
	html := `<html><body><div class="no-results">no product results for this query</div></body></html>`
	_, _, err := ParseListPage(html, testSelectors())
	ee, ok := errtax.As(err)
	require.True(t, ok)
	assert.Equal(t, errtax.NotFound, ee.Kind)
}

func TestParseListPageParseErrorOnMissingStructure(t *testing.T) {
	html := `<html><body><div class="unrelated">nothing here</div></body></html>`
	_, _, err := ParseListPage(html, testSelectors())
	ee, ok := errtax.As(err)
	require.True(t, ok)
	assert.Equal(t, errtax.Parse, ee.Kind)
}

func TestParseDetailPageExtractsOffersSortedByPrice(t *testing.T) {
	html := `
	<html><body>
	<h1 class="product-title">Samsung Galaxy Buds Pro</h1>
	<table>
	<tr class="offer-row"><td class="mall">b-mart</td><td class="price">30000</td><td class="shipping">paid</td><td class="delivery">2 days</td><td><a class="buy-link" href="https://b-mart/item">buy</a></td></tr>
	<tr class="offer-row"><td class="mall">a-mart</td><td class="price">25000</td><td class="shipping">free shipping</td><td class="delivery">next day</td><td><a class="buy-link" href="https://a-mart/item">buy</a></td></tr>
	</table>
	</body></html>`

	name, offers, err := ParseDetailPage(html, testSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Samsung Galaxy Buds Pro", name)
	require.Len(t, offers, 2)
	assert.Equal(t, "a-mart", offers[0].Mall)
	assert.True(t, offers[0].FreeShipping)
	assert.Equal(t, int64(25000), offers[0].Price)
}

func TestParseDetailPageNotFoundWhenNoValidOffers(t *testing.T) {
	html := `
	<html><body>
	<h1 class="product-title">Samsung Galaxy Buds Pro</h1>
	<table><tr class="offer-row"><span class="price">0</span></tr></table>
	</body></html>`
	_, _, err := ParseDetailPage(html, testSelectors())
	ee, ok := errtax.As(err)
	require.True(t, ok)
	assert.Equal(t, errtax.NotFound, ee.Kind)
}
