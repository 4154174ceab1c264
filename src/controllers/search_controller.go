package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/orchestrator"
)

// searchRequest is the bound/validated shape of POST /api/v1/price/search.
type searchRequest struct {
	ProductName  string  `json:"product_name" binding:"required"`
	CurrentPrice *int64  `json:"current_price"`
	CurrentURL   *string `json:"current_url"`
	ProductCode  *string `json:"product_code"`
}

// SearchController drives the orchestrator from inbound HTTP requests.
type SearchController struct {
	engine *orchestrator.Engine
}

// NewSearchController builds a SearchController over the given engine.
func NewSearchController(engine *orchestrator.Engine) *SearchController {
	return &SearchController{engine: engine}
}

// Search handles POST /api/v1/price/search.
func (sc *SearchController) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   gin.H{"code": string(errtax.InvalidInput), "message": "malformed request body"},
			"message": err.Error(),
		})
		return
	}

	query, err := models.NewQuery(req.ProductName, req.CurrentPrice, req.CurrentURL, req.ProductCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   gin.H{"code": string(errtax.InvalidInput), "message": err.Error()},
			"message": "invalid search request",
		})
		return
	}

	result := sc.engine.Search(c.Request.Context(), query)
	status, body := toResponse(req, result)
	c.JSON(status, body)
}

func toResponse(req searchRequest, result models.SearchResult) (int, gin.H) {
	if !result.Status.Successful() {
		return statusToHTTP(result.Status), gin.H{
			"status":  "error",
			"error":   gin.H{"code": errorCode(result.Status), "message": errorMessage(result.Status)},
			"message": errorMessage(result.Status),
		}
	}

	isCheaper := false
	priceDiff := int64(0)
	if req.CurrentPrice != nil {
		priceDiff = *req.CurrentPrice - result.LowestPrice
		isCheaper = result.LowestPrice < *req.CurrentPrice
	}

	topPrices := make([]gin.H, 0, len(result.TopOffers))
	for _, o := range result.TopOffers {
		topPrices = append(topPrices, gin.H{
			"rank":          o.Rank,
			"mall":          o.Mall,
			"price":         o.Price,
			"free_shipping": o.FreeShipping,
			"delivery":      o.Delivery,
			"link":          o.Link,
		})
	}

	return http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"product_name":  result.ProductName,
			"product_id":    nilIfEmpty(result.ProductID),
			"is_cheaper":    isCheaper,
			"price_diff":    priceDiff,
			"lowest_price":  result.LowestPrice,
			"link":          result.Link,
			"mall":          nilIfEmpty(result.Mall),
			"free_shipping": result.FreeShipping,
			"top_prices":    topPrices,
			"price_trend":   []int64{},
			"source":        result.Source,
			"elapsed_ms":    result.ElapsedMs,
		},
		"message": "ok",
	}
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func statusToHTTP(status models.Status) int {
	switch status {
	case models.StatusNotFound, models.StatusTimeout, models.StatusBlocked, models.StatusBudgetExhausted, models.StatusNoResults, models.StatusParseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status models.Status) string {
	switch status {
	case models.StatusNotFound:
		return string(errtax.NotFound)
	case models.StatusTimeout:
		return string(errtax.Timeout)
	case models.StatusBlocked:
		return string(errtax.Blocked)
	case models.StatusBudgetExhausted:
		return string(errtax.BudgetExhausted)
	default:
		return string(errtax.Internal)
	}
}

func errorMessage(status models.Status) string {
	switch status {
	case models.StatusNotFound:
		return "no matching product could be found"
	case models.StatusTimeout:
		return "the search timed out"
	case models.StatusBlocked:
		return "the aggregator blocked this request"
	case models.StatusBudgetExhausted:
		return "the search budget was exhausted"
	default:
		return "an internal error occurred"
	}
}
