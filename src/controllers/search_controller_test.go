package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/priceradar/pricesearch-engine/src/models"
)

func TestToResponseSuccess(t *testing.T) {
	price := int64(30000)
	req := searchRequest{ProductName: "galaxy buds pro", CurrentPrice: &price}
	result := models.NewSuccess(models.StatusFastPathSuccess, models.SourceFastPath, "p1", "galaxy buds pro",
		[]models.Offer{{Price: 25000, Link: "https://mall/item", Mall: "mall-a"}}, 900)

	status, body := toResponse(req, result)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(gin.H)
	assert.Equal(t, true, data["is_cheaper"])
	assert.Equal(t, int64(5000), data["price_diff"])
}

func TestToResponseFailureMapsStatus(t *testing.T) {
	req := searchRequest{ProductName: "galaxy buds pro"}
	result := models.NewFailure(models.StatusNotFound, 12000)

	status, body := toResponse(req, result)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "error", body["status"])
}

func TestStatusToHTTP(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusToHTTP(models.StatusTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, statusToHTTP(models.StatusBlocked))
	assert.Equal(t, http.StatusInternalServerError, statusToHTTP(models.StatusParseError+"unknown"))
}

func TestErrorCodeMapping(t *testing.T) {
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(models.StatusNotFound))
	assert.Equal(t, "TIMEOUT", errorCode(models.StatusTimeout))
	assert.Equal(t, "BLOCKED", errorCode(models.StatusBlocked))
	assert.Equal(t, "INTERNAL_ERROR", errorCode(models.StatusParseError))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(""))
	assert.Equal(t, "mall-a", nilIfEmpty("mall-a"))
}
