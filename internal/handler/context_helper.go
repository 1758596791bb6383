package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/middleware"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

// scopeFromContext returns the tenant scope of the request or answers 400 when there is none.
func scopeFromContext(c *gin.Context) (models.TenantScope, bool) {
	scope, ok := middleware.Scope(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school scope is required"))
		return models.TenantScope{}, false
	}
	return scope, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
