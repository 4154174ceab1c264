package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/logging"
)

func TestHealthReportsDegradedDependenciesAsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := cacheadapter.New(nil, logging.New(logging.Config{}), nil)
	hc := NewHealthController(cache, nil, nil)

	router := gin.New()
	router.GET("/health", hc.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "disabled", deps["database"])
	assert.Equal(t, "disabled", deps["browser"])
	assert.Equal(t, "disabled", deps["redis"])
}
