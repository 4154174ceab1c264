// Package siteadapter defines the contract the FastPath and SlowPath
// executors both drive against the aggregator: the URL scheme and page
// shape are shared, only the HTML retrieval mechanism differs (plain
// HTTP versus a leased browser page).
package siteadapter

import "context"

// ListPage is the raw HTML of a search-results page plus its status code.
type ListPage struct {
	HTML       string
	StatusCode int
}

// DetailPage is the raw HTML of a product detail page plus its status
// code.
type DetailPage struct {
	HTML       string
	StatusCode int
}

// SiteAdapter retrieves raw pages from the aggregator for a query string
// or a product ID. Implementations never parse the HTML themselves; that
// is left to the shared goquery-based parser so FastPath and SlowPath
// extract fields identically regardless of how the HTML was obtained.
type SiteAdapter interface {
	SearchList(ctx context.Context, query string) (ListPage, error)
	FetchDetail(ctx context.Context, productID string) (DetailPage, error)
}
