// Package fastpath issues plain HTTP search/detail requests against the
// aggregator and parses the returned HTML. It is the cheap path: no
// browser, a 3-Blocked/Timeout circuit breaker threshold, and a hard
// per-candidate deadline.
package fastpath

import (
	"context"
	"strings"
	"time"

	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/resources"
	"github.com/priceradar/pricesearch-engine/src/siteadapter"
)

// Result is what a successful FastPath candidate search returns.
type Result struct {
	ProductID    string
	ProductName  string
	Offers       []models.Offer
	Mall         string
	FreeShipping bool
}

// Executor drives a siteadapter.SiteAdapter over plain HTTP.
type Executor struct {
	adapter siteadapter.SiteAdapter
	res     *resources.Resources
	baseURL string
}

// New constructs a FastPath Executor against the given SiteAdapter.
func New(adapter siteadapter.SiteAdapter, res *resources.Resources, baseURL string) *Executor {
	return &Executor{adapter: adapter, res: res, baseURL: baseURL}
}

// Search performs the list -> detail extraction for one candidate query
// within deadline. It never retries internally: retry behavior belongs
// to the candidate-iteration level, not inside a single HTTP round trip.
func (e *Executor) Search(ctx context.Context, query string, deadline time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	list, err := e.adapter.SearchList(ctx, query)
	if err != nil {
		return Result{}, classifyTransport(ctx, err)
	}
	if siteadapter.IsBlocked(list.HTML, list.StatusCode, e.res.Selectors.BlockedMarkers) {
		return Result{}, errtax.New(errtax.Blocked, "fastpath: list page looks like an anti-bot challenge")
	}

	productID, detailURL, err := siteadapter.ParseListPage(list.HTML, e.res.Selectors)
	if err != nil {
		return Result{}, err
	}
	_ = detailURL // the detail URL is informational; FetchDetail re-derives from productID per the SiteAdapter contract

	detail, err := e.adapter.FetchDetail(ctx, productID)
	if err != nil {
		return Result{}, classifyTransport(ctx, err)
	}
	if siteadapter.IsBlocked(detail.HTML, detail.StatusCode, e.res.Selectors.BlockedMarkers) {
		return Result{}, errtax.New(errtax.Blocked, "fastpath: detail page looks like an anti-bot challenge")
	}

	name, offers, err := siteadapter.ParseDetailPage(detail.HTML, e.res.Selectors)
	if err != nil {
		return Result{}, err
	}

	mall, freeShipping := "", false
	if len(offers) > 0 {
		mall, freeShipping = offers[0].Mall, offers[0].FreeShipping
	}
	return Result{
		ProductID:    productID,
		ProductName:  name,
		Offers:       offers,
		Mall:         mall,
		FreeShipping: freeShipping,
	}, nil
}

// classifyTransport maps a raw transport error into the taxonomy: a
// context deadline (ours or the caller's) becomes Timeout, everything
// else is a Network-flavored failure also surfaced as Timeout (the
// orchestrator does not distinguish Network from Timeout beyond
// logging).
func classifyTransport(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errtax.Wrap(errtax.Timeout, "fastpath: request deadline exceeded", err)
	}
	if ctx.Err() == context.Canceled {
		return errtax.Wrap(errtax.Timeout, "fastpath: request canceled by budget", err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return errtax.Wrap(errtax.Timeout, "fastpath: transport timeout", err)
	}
	return errtax.Wrap(errtax.Timeout, "fastpath: network failure", err)
}
