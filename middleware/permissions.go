package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role constants to avoid string typos
const (
	RoleTempleAdmin  = "templeadmin"
	RoleSupervisor   = "supervisor"
	RoleCounterStaff = "counterstaff"
)

// AccessContext stores the caller identity resolved from the bearer token
type AccessContext struct {
	UserID         string
	RoleName       string
	EntityID       *uint  // temple/branch the caller belongs to
	CounterID      string // counter terminal the caller is signed in at
	PermissionType string // "full" or "counter"
}

// CanWrite returns true if the user may change catalog and slot configuration
func (ac *AccessContext) CanWrite() bool {
	return ac.PermissionType == "full"
}

// CanApprove returns true for roles allowed to approve reprints and lock settlements
func (ac *AccessContext) CanApprove() bool {
	return ac.RoleName == RoleTempleAdmin || ac.RoleName == RoleSupervisor
}

// EntityIDOr returns the caller's entity, or fallback when the token carries none
func (ac *AccessContext) EntityIDOr(fallback uint) uint {
	if ac.EntityID != nil {
		return *ac.EntityID
	}
	return fallback
}

// GetAccessContext extracts the access context, writing a 401 when it is missing
func GetAccessContext(c *gin.Context) (AccessContext, bool) {
	raw, exists := c.Get("access_context")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access context missing"})
		return AccessContext{}, false
	}

	accessContext, ok := raw.(AccessContext)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access context"})
		return AccessContext{}, false
	}
	return accessContext, true
}
