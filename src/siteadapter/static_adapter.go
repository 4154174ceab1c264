package siteadapter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/priceradar/pricesearch-engine/src/errtax"
)

// StaticSiteAdapter drives SiteAdapter over plain HTTP, for the FastPath
// executor. It issues the search and detail requests through resty,
// configured with the aggregator's base URL and user agent.
type StaticSiteAdapter struct {
	client     *resty.Client
	baseURL    string
	listPath   string
	detailPath string
}

// NewStaticSiteAdapter builds a StaticSiteAdapter for the given aggregator
// target.
func NewStaticSiteAdapter(baseURL, userAgent, listPath, detailPath string, retryCount int) *StaticSiteAdapter {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRetryCount(retryCount)
	return &StaticSiteAdapter{
		client:     client,
		baseURL:    baseURL,
		listPath:   listPath,
		detailPath: detailPath,
	}
}

// SearchList issues the search request against the aggregator's list
// endpoint for the given candidate query.
func (a *StaticSiteAdapter) SearchList(ctx context.Context, query string) (ListPage, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(a.baseURL + a.listPath)
	if err != nil {
		return ListPage{}, classifyTransportError(err)
	}
	return ListPage{HTML: resp.String(), StatusCode: resp.StatusCode()}, nil
}

// FetchDetail issues the detail request for a product ID extracted from a
// prior SearchList call.
func (a *StaticSiteAdapter) FetchDetail(ctx context.Context, productID string) (DetailPage, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("id", productID).
		Get(a.baseURL + a.detailPath + "/" + url.PathEscape(productID))
	if err != nil {
		return DetailPage{}, classifyTransportError(err)
	}
	return DetailPage{HTML: resp.String(), StatusCode: resp.StatusCode()}, nil
}

func classifyTransportError(err error) error {
	return errtax.Wrap(errtax.Timeout, fmt.Sprintf("transport failure: %v", err), err)
}
