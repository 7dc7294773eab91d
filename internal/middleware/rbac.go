package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "your role cannot access this resource"))
		c.Abort()
	}
}

// Role group guards.
func AdminOnly() gin.HandlerFunc    { return RequireRoles(models.AdminRoles...) }
func TeacherOnly() gin.HandlerFunc  { return RequireRoles(models.TeacherRoles...) }
func AccountsOnly() gin.HandlerFunc { return RequireRoles(models.AccountsRoles...) }
func StaffOnly() gin.HandlerFunc    { return RequireRoles(models.StaffRoles...) }
func ParentOnly() gin.HandlerFunc   { return RequireRoles(models.ParentRoles...) }
