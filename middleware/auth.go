package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sharath018/seva-counter-backend/config"
)

// AuthMiddleware handles JWT authentication and sets up access context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(cfg.JWTAccessSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		accessContext, err := CreateAccessContext(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set("user_id", accessContext.UserID)
		c.Set("claims", claims)
		c.Set("access_context", accessContext)
		if accessContext.EntityID != nil {
			c.Set("entity_id", *accessContext.EntityID)
		}

		c.Next()
	}
}

// CreateAccessContext builds the access context from token claims.
// user_id may be numeric or a string; sub is the fallback.
func CreateAccessContext(claims jwt.MapClaims) (AccessContext, error) {
	userID := claimString(claims, "user_id")
	if userID == "" {
		userID = claimString(claims, "sub")
	}
	if userID == "" {
		return AccessContext{}, fmt.Errorf("user_id missing in token")
	}

	role := claimString(claims, "role")
	accessContext := AccessContext{
		UserID:    userID,
		RoleName:  role,
		CounterID: claimString(claims, "counter_id"),
	}

	if eid, ok := claims["entity_id"].(float64); ok && eid > 0 {
		id := uint(eid)
		accessContext.EntityID = &id
	}

	switch role {
	case RoleTempleAdmin:
		accessContext.PermissionType = "full"
	case RoleSupervisor, RoleCounterStaff:
		accessContext.PermissionType = "counter"
	default:
		return AccessContext{}, fmt.Errorf("unsupported role %q", role)
	}

	return accessContext, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
