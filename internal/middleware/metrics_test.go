package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/service"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/requests/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/requests/a", "/requests/b", "/nowhere/1", "/nowhere/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					counts[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"/requests/:id": 2, unmatchedRoute: 2}, counts)
}
