package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
)

// AuditWriter persists audit records.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log for every authenticated call, including failed
// ones, with the response status. resourceParam names the path parameter
// holding the resource id.
func Audit(writer AuditWriter, logger *zap.Logger, action, resource, resourceParam string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		claims, ok := Claims(c)
		if !ok || c.Writer.Status() == http.StatusUnauthorized {
			return
		}

		entry := &models.AuditLog{
			TenantID:  &claims.TenantID,
			UserID:    &claims.UserID,
			Action:    action,
			Resource:  resource,
			Status:    c.Writer.Status(),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if resourceParam != "" {
			if id := c.Param(resourceParam); id != "" {
				entry.ResourceID = &id
			}
		}
		if err := writer.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
