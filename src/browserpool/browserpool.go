// Package browserpool maintains a small set of warm headless-browser
// contexts and hands out capacity-bounded, single-use page leases to the
// SlowPath executor. It is the sole mutator of live browser handles;
// every other component only ever sees a leased *Page.
package browserpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/logging"
)

// Config controls pool sizing.
type Config struct {
	// Contexts is N: the number of warm browser processes kept alive.
	Contexts int
	// MaxConcurrentPages is M: the total number of pages that may be
	// leased out at once, across all contexts.
	MaxConcurrentPages int
	// Headless controls whether launched browsers run headless; tests
	// and local debugging may want this false.
	Headless bool
}

// DefaultConfig is a reasonable single-node sizing.
func DefaultConfig() Config {
	return Config{Contexts: 2, MaxConcurrentPages: 6, Headless: true}
}

// Page is a leased, single-request page. Callers must call Release
// exactly once, from every exit path (success, error, or cancellation).
type Page struct {
	*rod.Page
	pool  *Pool
	ctx   *rod.Browser
	dirty bool
}

// Pool is a capacity-bounded warm browser resource. It owns its own
// mutex and semaphore and is safe for concurrent use by many requests.
type Pool struct {
	cfg     Config
	log     *logging.Logger
	sem     chan struct{}
	mu      sync.Mutex
	idle    []*rod.Browser
	live    map[*rod.Browser]bool
	closed  bool
}

// New launches cfg.Contexts warm browser processes and returns a Pool
// ready to lease pages. Launch failures for individual contexts are
// logged and skipped; the pool degrades to fewer warm contexts rather
// than failing startup, consistent with the rest of the engine's "cache
// unreachable -> degrade, don't fail" posture.
func New(cfg Config, log *logging.Logger) (*Pool, error) {
	p := &Pool{
		cfg:  cfg,
		log:  log,
		sem:  make(chan struct{}, cfg.MaxConcurrentPages),
		live: make(map[*rod.Browser]bool),
	}
	for i := 0; i < cfg.Contexts; i++ {
		b, err := p.launch()
		if err != nil {
			log.WithError(err).Warn("browserpool: failed to launch warm context")
			continue
		}
		p.idle = append(p.idle, b)
	}
	if len(p.idle) == 0 && cfg.Contexts > 0 {
		return nil, fmt.Errorf("browserpool: failed to launch any browser context")
	}
	return p, nil
}

func (p *Pool) launch() (*rod.Browser, error) {
	b := rod.New()
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// Lease acquires a capacity permit (bounded by MaxConcurrentPages) and
// returns a fresh page from a free or newly-created context. It respects
// ctx's deadline: a permit that cannot be acquired in time returns
// errtax.Timeout rather than blocking indefinitely.
func (p *Pool) Lease(ctx context.Context) (*Page, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errtax.Wrap(errtax.Timeout, "browser pool lease timed out waiting for capacity", ctx.Err())
	}

	browser, err := p.acquireContext()
	if err != nil {
		<-p.sem
		return nil, errtax.Wrap(errtax.BrowserCrash, "browser pool failed to acquire a context", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		p.mu.Lock()
		delete(p.live, browser)
		p.mu.Unlock()
		<-p.sem
		return nil, errtax.Wrap(errtax.BrowserCrash, "browser pool failed to open a page", err)
	}
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		p.log.WithError(err).Debug("browserpool: stealth injection failed, continuing without it")
	}

	return &Page{Page: page, pool: p, ctx: browser}, nil
}

func (p *Pool) acquireContext() (*rod.Browser, error) {
	p.mu.Lock()
	if len(p.idle) > 0 {
		b := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.live[b] = true
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	b, err := p.launch()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.live[b] = true
	p.mu.Unlock()
	return b, nil
}

// Release returns a page's capacity permit. If ok, the underlying browser
// context is reset to about:blank and returned to the free list; if !ok
// (a BrowserCrash, or cancellation mid-use), the context is destroyed
// instead so a corrupted browser process is never handed to another
// request.
func (pg *Page) Release(ok bool) {
	defer func() { <-pg.pool.sem }()

	if !ok || pg.dirty {
		_ = pg.ctx.Close()
		pg.pool.mu.Lock()
		delete(pg.pool.live, pg.ctx)
		pg.pool.mu.Unlock()
		return
	}

	if err := pg.Page.Navigate("about:blank"); err != nil {
		pg.pool.log.WithError(err).Debug("browserpool: about:blank reset failed, destroying context")
		_ = pg.ctx.Close()
		pg.pool.mu.Lock()
		delete(pg.pool.live, pg.ctx)
		pg.pool.mu.Unlock()
		return
	}

	pg.pool.mu.Lock()
	defer pg.pool.mu.Unlock()
	if pg.pool.closed {
		_ = pg.ctx.Close()
		return
	}
	delete(pg.pool.live, pg.ctx)
	pg.pool.idle = append(pg.pool.idle, pg.ctx)
}

// MarkDirty flags the page's context as unsalvageable (e.g. a detected
// BrowserCrash) so the subsequent Release destroys it even if the caller
// otherwise reports ok=true.
func (pg *Page) MarkDirty() {
	pg.dirty = true
}

// Shutdown closes every live and idle context, waiting up to deadline for
// in-flight leases to drain.
func (p *Pool) Shutdown(deadline time.Duration) {
	deadlineAt := time.Now().Add(deadline)
	for len(p.sem) > 0 && time.Now().Before(deadlineAt) {
		time.Sleep(50 * time.Millisecond)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, b := range p.idle {
		_ = b.Close()
	}
	p.idle = nil
	for b := range p.live {
		_ = b.Close()
		delete(p.live, b)
	}
}
