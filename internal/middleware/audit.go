package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Auditor builds audit middleware bound to one recorder.
type Auditor struct {
	recorder AuditRecorder
	logger   *zap.Logger
}

// NewAuditor constructs an Auditor. A nil recorder disables auditing.
func NewAuditor(recorder AuditRecorder, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{recorder: recorder, logger: logger}
}

// Record writes an entry after a successful request. entityParam names the route
// parameter holding the entity id; empty means none.
func (a *Auditor) Record(action, entityType, entityParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if a == nil || a.recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:     action,
			EntityType: entityType,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			CreatedAt:  start,
		}
		if claims, ok := Claims(c); ok {
			userID, schoolID := claims.UserID, claims.SchoolID
			entry.UserID = &userID
			entry.SchoolID = &schoolID
		}
		if entityParam != "" {
			if id := c.Param(entityParam); id != "" {
				entry.EntityID = &id
			}
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := a.recorder.Create(c.Request.Context(), entry); err != nil {
			a.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		}
	}
}
