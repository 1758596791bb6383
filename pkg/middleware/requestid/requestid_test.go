package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareKeepsCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "req-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(headerKey))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", maxLength+1))
	router.ServeHTTP(w, req)

	got := w.Header().Get(headerKey)
	assert.Len(t, got, 36)
}
