package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/logger"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

// ContextScopeKey is the gin context key storing the resolved tenant scope.
const ContextScopeKey = "tenantScope"

// SchoolHeader lets a superadmin act on behalf of a school.
const SchoolHeader = "X-School-ID"

// Tenant resolves the school scope from the session. Requests without one are rejected.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		scope := claims.Scope()
		if claims.Role == models.RoleSuperAdmin {
			if school := strings.TrimSpace(c.GetHeader(SchoolHeader)); school != "" {
				scope = models.TenantScope{SchoolID: school}
			}
		}
		if !scope.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school scope is required"))
			c.Abort()
			return
		}
		c.Set(ContextScopeKey, scope)
		c.Set(logger.SchoolContextKey, scope.SchoolID)
		c.Next()
	}
}

// Scope returns the tenant scope resolved by Tenant.
func Scope(c *gin.Context) (models.TenantScope, bool) {
	value, exists := c.Get(ContextScopeKey)
	if !exists {
		return models.TenantScope{}, false
	}
	scope, ok := value.(models.TenantScope)
	return scope, ok && scope.Valid()
}
