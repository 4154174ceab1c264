package siteadapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/resources"
)

// IsBlocked reports whether a response looks like an anti-bot challenge:
// a 429/403 status, or a body matching one of the configured signatures.
func IsBlocked(html string, statusCode int, markers []string) bool {
	if statusCode == 429 || statusCode == 403 {
		return true
	}
	lower := strings.ToLower(html)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// ParseListPage extracts the best-matching product's stable identifier
// and detail URL from a search-results page. Returns errtax.NotFound when
// the page has zero matches and errtax.Parse when the expected DOM
// structure is missing entirely (site template drift).
func ParseListPage(html string, sel resources.Selectors) (productID, detailURL string, err error) {
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if parseErr != nil {
		return "", "", errtax.Wrap(errtax.Parse, "list page is not valid HTML", parseErr)
	}

	items := doc.Find(sel.ListItem)
	if items.Length() == 0 {
		if doc.Find(sel.ProductLink).Length() == 0 && !strings.Contains(html, "product") {
			return "", "", errtax.New(errtax.Parse, "list page missing expected structure")
		}
		return "", "", errtax.New(errtax.NotFound, "no matching products on list page")
	}

	first := items.First()
	link := first.Find(sel.ProductLink)
	if link.Length() == 0 {
		return "", "", errtax.New(errtax.Parse, "list item missing product link")
	}

	id := SafeAttr(link, sel.ProductIDAttr, 100)
	href := SafeURL(SafeAttr(link, "href", 1000))
	if id == "" {
		return "", "", errtax.New(errtax.Parse, "list item missing product id")
	}
	return id, href, nil
}

// ParseDetailPage extracts the product name and top offers from a detail
// page. Offers are sorted by price ascending and truncated to 3 before
// return, mirroring the FastPath/SlowPath executor contract.
func ParseDetailPage(html string, sel resources.Selectors) (productName string, offers []models.Offer, err error) {
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if parseErr != nil {
		return "", nil, errtax.Wrap(errtax.Parse, "detail page is not valid HTML", parseErr)
	}

	name := SafeString(doc.Find(sel.DetailName).First(), 500)
	if name == "" {
		return "", nil, errtax.New(errtax.Parse, "detail page missing product title")
	}

	rows := doc.Find(sel.OfferRow)
	if rows.Length() == 0 {
		return "", nil, errtax.New(errtax.Parse, "detail page missing offer table")
	}

	var parsed []models.Offer
	rows.Each(func(i int, row *goquery.Selection) {
		price := SafeInt(row.Find(sel.OfferPrice), 0, 1_000_000_000)
		link := SafeURL(SafeAttr(row.Find(sel.OfferLink), "href", 1000))
		if price <= 0 || link == "" {
			return
		}
		parsed = append(parsed, models.Offer{
			Rank:         i + 1,
			Mall:         SafeString(row.Find(sel.OfferMall), 200),
			Price:        price,
			FreeShipping: strings.Contains(strings.ToLower(SafeString(row.Find(sel.OfferShipping), 50)), "free"),
			Delivery:     SafeString(row.Find(sel.OfferDelivery), 200),
			Link:         link,
		})
	})

	if len(parsed) == 0 {
		return "", nil, errtax.New(errtax.NotFound, "detail page has no valid offers")
	}

	sorted := models.SortOffers(parsed)
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	return name, sorted, nil
}
