package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// requireAccess aborts with 401 when the auth middleware has not run, and with 403 when
// allow rejects the caller.
func requireAccess(denied string, allow func(AccessContext) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("access_context")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access context missing"})
			return
		}
		accessContext, ok := raw.(AccessContext)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access context"})
			return
		}

		if !allow(accessContext) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": denied})
			return
		}
		c.Next()
	}
}

// RBACMiddleware lets through callers holding one of the roles.
func RBACMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return requireAccess("unauthorized", func(ac AccessContext) bool {
		return slices.Contains(allowedRoles, ac.RoleName)
	})
}

// RequireWriteAccess lets through callers allowed to change catalog and slot configuration.
func RequireWriteAccess() gin.HandlerFunc {
	return requireAccess("write access denied", func(ac AccessContext) bool {
		return ac.CanWrite()
	})
}
