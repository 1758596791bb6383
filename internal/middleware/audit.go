package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log row after a successful mutating request.
func Audit(repo auditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := Claims(c); claims != nil {
			userID := claims.UserID
			entry.UserID = &userID
		}
		if scope, ok := Scope(c); ok {
			school := scope.SchoolID
			entry.SchoolID = &school
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := repo.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warn("write audit log failed", zap.String("action", action), zap.Error(err))
		}
	}
}
