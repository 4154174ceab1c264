package models

// Status is the discriminant of a SearchResult.
type Status string

const (
	StatusCacheHit         Status = "CacheHit"
	StatusFastPathSuccess  Status = "FastPathSuccess"
	StatusSlowPathSuccess  Status = "SlowPathSuccess"
	StatusTimeout          Status = "Timeout"
	StatusParseError       Status = "ParseError"
	StatusBlocked          Status = "Blocked"
	StatusNoResults        Status = "NoResults"
	StatusBudgetExhausted  Status = "BudgetExhausted"
	StatusNotFound         Status = "NotFound"
)

// Successful reports whether a Status carries a populated offer envelope.
func (s Status) Successful() bool {
	switch s {
	case StatusCacheHit, StatusFastPathSuccess, StatusSlowPathSuccess:
		return true
	default:
		return false
	}
}

// Source identifies which layer produced a successful SearchResult.
type Source string

const (
	SourceCache    Source = "cache"
	SourceFastPath Source = "fastpath"
	SourceSlowPath Source = "slowpath"
)

// SearchResult is the engine's internal outcome envelope: a tagged union
// over Status, carrying the offer payload when Status.Successful().
//
// Invariant: when Status.Successful(), LowestPrice == TopOffers[0].Price
// and Link == TopOffers[0].Link.
type SearchResult struct {
	Status      Status
	ProductID   string
	ProductName string
	LowestPrice int64
	Link        string
	TopOffers   []Offer
	Mall        string
	FreeShipping bool
	ElapsedMs   int64
	Source      Source
}

// NewSuccess builds a successful SearchResult from a sorted offer list,
// enforcing the lowest-price/link invariant against the first offer.
func NewSuccess(status Status, source Source, productID, productName string, offers []Offer, elapsedMs int64) SearchResult {
	sorted := SortOffers(offers)
	top := sorted
	if len(top) > 3 {
		top = top[:3]
	}
	var lowest int64
	var link, mall string
	var freeShipping bool
	if len(top) > 0 {
		lowest = top[0].Price
		link = top[0].Link
		mall = top[0].Mall
		freeShipping = top[0].FreeShipping
	}
	return SearchResult{
		Status:       status,
		Source:       source,
		ProductID:    productID,
		ProductName:  productName,
		LowestPrice:  lowest,
		Link:         link,
		TopOffers:    top,
		Mall:         mall,
		FreeShipping: freeShipping,
		ElapsedMs:    elapsedMs,
	}
}

// NewFailure builds a terminal, non-successful SearchResult.
func NewFailure(status Status, elapsedMs int64) SearchResult {
	return SearchResult{Status: status, ElapsedMs: elapsedMs}
}

// AsCacheHit relabels a previously-cached SearchResult as a cache hit: the
// cache adapter's get_positive returns the full envelope including the
// original source tag, and the orchestrator then relabels both Status and
// Source to reflect that this request was served from cache.
func (r SearchResult) AsCacheHit(elapsedMs int64) SearchResult {
	r.Status = StatusCacheHit
	r.Source = SourceCache
	r.ElapsedMs = elapsedMs
	return r
}
