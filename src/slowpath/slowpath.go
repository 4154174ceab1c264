// Package slowpath drives a pooled headless browser to extract the same
// top-3 offers FastPath would, for queries where the HTML path is
// blocked, dynamic, or broken by template drift. It shares the
// SiteAdapter-shaped URL contract with FastPath but fetches pages itself
// via a leased browser.Page, since the contract's HTTP-only SiteAdapter
// cannot drive a real DOM.
package slowpath

import (
	"context"
	"strings"
	"time"

	"github.com/priceradar/pricesearch-engine/src/browserpool"
	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/resources"
	"github.com/priceradar/pricesearch-engine/src/siteadapter"
)

// Result is what a successful SlowPath candidate search returns; shares
// its field shape with FastPath's result so the orchestrator can treat
// both uniformly.
type Result struct {
	ProductID    string
	ProductName  string
	Offers       []models.Offer
	Mall         string
	FreeShipping bool
}

// Executor drives the aggregator via a leased browser page.
type Executor struct {
	pool      *browserpool.Pool
	res       *resources.Resources
	baseURL   string
	listPath  string
	detailPath string
	log       *logging.Logger
}

// New constructs a SlowPath Executor over a shared browser pool.
func New(pool *browserpool.Pool, res *resources.Resources, baseURL, listPath, detailPath string, log *logging.Logger) *Executor {
	return &Executor{pool: pool, res: res, baseURL: baseURL, listPath: listPath, detailPath: detailPath, log: log}
}

// Search performs the two-hop list -> detail extraction for one candidate
// query, within deadline. Every exit path releases the leased page: ok
// only on a clean, reusable exit; the page is destroyed on BrowserCrash.
func (e *Executor) Search(ctx context.Context, query string, deadline time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	page, err := e.pool.Lease(ctx)
	if err != nil {
		return Result{}, err
	}
	ok := false
	defer func() { page.Release(ok) }()

	listURL := e.baseURL + e.listPath + "?q=" + query
	listHTML, statusCode, err := e.navigate(ctx, page, listURL)
	if err != nil {
		if isCrash(err) {
			page.MarkDirty()
		}
		return Result{}, err
	}
	if siteadapter.IsBlocked(listHTML, statusCode, e.res.Selectors.BlockedMarkers) {
		ok = true
		return Result{}, errtax.New(errtax.Blocked, "slowpath: list page looks like an anti-bot challenge")
	}

	productID, detailURL, err := siteadapter.ParseListPage(listHTML, e.res.Selectors)
	if err != nil {
		if ee, isEngine := errtax.As(err); isEngine && ee.Kind == errtax.NotFound {
			ok = true
		}
		return Result{}, err
	}
	if detailURL == "" {
		detailURL = e.baseURL + e.detailPath + "/" + productID
	} else if !strings.HasPrefix(detailURL, "http") {
		detailURL = e.baseURL + detailURL
	}

	detailHTML, detailStatus, err := e.navigate(ctx, page, detailURL)
	if err != nil {
		if isCrash(err) {
			page.MarkDirty()
		}
		return Result{}, err
	}
	if siteadapter.IsBlocked(detailHTML, detailStatus, e.res.Selectors.BlockedMarkers) {
		ok = true
		return Result{}, errtax.New(errtax.Blocked, "slowpath: detail page looks like an anti-bot challenge")
	}

	name, offers, err := siteadapter.ParseDetailPage(detailHTML, e.res.Selectors)
	if err != nil {
		ok = true
		return Result{}, err
	}

	ok = true
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

// navigate drives the page to url and waits for DOM stability, matching
// the wait strategy the reference scraper uses: a 300ms quiet-period
// stability check rather than a network-idle listener, which cannot
// coexist with request hijacking on modern Chromium. It returns the
// rendered HTML and a best-effort HTTP status code.
func (e *Executor) navigate(ctx context.Context, page *browserpool.Page, url string) (string, int, error) {
	p := page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return "", 0, classifyNavError(err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		e.log.WithError(err).Debug("slowpath: WaitDOMStable did not converge, proceeding with current DOM")
	}

	statusCode := 200
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 200;
		} catch (e) {}
		return 200;
	}`); err == nil {
		if n := res.Value.Int(); n > 0 {
			statusCode = n
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", 0, errtax.Wrap(errtax.BrowserCrash, "slowpath: failed to extract page HTML", err)
	}
	return html, statusCode, nil
}

func classifyNavError(err error) error {
	if err == context.DeadlineExceeded {
		return errtax.Wrap(errtax.Timeout, "slowpath: navigation deadline exceeded", err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "context canceled") || strings.Contains(msg, "deadline exceeded") {
		return errtax.Wrap(errtax.Timeout, "slowpath: navigation canceled by budget", err)
	}
	if strings.Contains(msg, "detached") || strings.Contains(msg, "target closed") || strings.Contains(msg, "context closed") {
		return errtax.Wrap(errtax.BrowserCrash, "slowpath: browser frame detached", err)
	}
	return errtax.Wrap(errtax.BrowserCrash, "slowpath: navigation failed", err)
}

func isCrash(err error) bool {
	ee, ok := errtax.As(err)
	return ok && ee.Kind == errtax.BrowserCrash
}
