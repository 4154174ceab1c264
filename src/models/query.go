package models

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Query is the immutable input bundle created by the HTTP adapter and
// consumed by the orchestrator. It is never mutated after construction.
type Query struct {
	ProductName   string
	CurrentPrice  *int64
	CurrentURL    *string
	ProductCode   *string
}

var blockedTokens = []string{"<", ">", "script", "javascript"}

// NewQuery validates raw input and returns an immutable Query.
func NewQuery(productName string, currentPrice *int64, currentURL *string, productCode *string) (Query, error) {
	if l := utf8.RuneCountInString(productName); l < 1 || l > 500 {
		return Query{}, fmt.Errorf("product_name must be 1..500 chars, got %d", l)
	}
	lower := strings.ToLower(productName)
	for _, tok := range blockedTokens {
		if strings.Contains(lower, tok) {
			return Query{}, fmt.Errorf("product_name contains a disallowed token")
		}
	}
	if currentPrice != nil && (*currentPrice < 0 || *currentPrice > 1_000_000_000) {
		return Query{}, fmt.Errorf("current_price must be in 0..1_000_000_000")
	}
	if currentURL != nil && *currentURL != "" {
		u, err := url.Parse(*currentURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return Query{}, fmt.Errorf("current_url must be an absolute http(s) URL")
		}
	}
	return Query{
		ProductName:  productName,
		CurrentPrice: currentPrice,
		CurrentURL:   currentURL,
		ProductCode:  productCode,
	}, nil
}
