package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sharath018/seva-counter-backend/config"
	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
)

const testSecret = "counter-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func authRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware(&config.Config{JWTAccessSecret: testSecret})}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		ac, ok := GetAccessContext(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": ac.UserID, "role": ac.RoleName, "counter_id": ac.CounterID, "write": ac.CanWrite()})
	})
	r.GET("/whoami", chain...)
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareResolvesCounterStaff(t *testing.T) {
	r := authRouter()
	w := get(r, signToken(t, jwt.MapClaims{"user_id": float64(17), "role": RoleCounterStaff, "counter_id": "C2"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "17", gjson.Get(body, "user_id").String())
	assert.Equal(t, "C2", gjson.Get(body, "counter_id").String())
	assert.False(t, gjson.Get(body, "write").Bool())
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	r := authRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "not-a-jwt").Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "1", "role": RoleTempleAdmin}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, forged).Code)

	w := get(r, signToken(t, jwt.MapClaims{"user_id": "9", "role": "devotee"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "unsupported role")
}

func TestCreateAccessContextFallsBackToSubject(t *testing.T) {
	ac, err := CreateAccessContext(jwt.MapClaims{"sub": "u-5", "role": RoleTempleAdmin, "entity_id": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, "u-5", ac.UserID)
	assert.True(t, ac.CanWrite())
	assert.True(t, ac.CanApprove())
	assert.Equal(t, uint(3), ac.EntityIDOr(1))

	_, err = CreateAccessContext(jwt.MapClaims{"role": RoleSupervisor})
	assert.Error(t, err)
}

func TestRBACAndWriteAccess(t *testing.T) {
	r := authRouter(RBACMiddleware(RoleTempleAdmin, RoleSupervisor), RequireWriteAccess())

	staff := signToken(t, jwt.MapClaims{"user_id": "1", "role": RoleCounterStaff})
	assert.Equal(t, http.StatusForbidden, get(r, staff).Code)

	supervisor := signToken(t, jwt.MapClaims{"user_id": "2", "role": RoleSupervisor})
	w := get(r, supervisor)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "write access denied", gjson.Get(w.Body.String(), "error").String())

	admin := signToken(t, jwt.MapClaims{"user_id": "3", "role": RoleTempleAdmin})
	assert.Equal(t, http.StatusOK, get(r, admin).Code)
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(3))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{204, 204, 204, http.StatusTooManyRequests}, codes)
}

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.SettlementLocked("C1 2026-10-16 MORNING"), http.StatusLocked, "SETTLEMENT_LOCKED"},
		{apperrors.CapacityExceeded("slot 4"), http.StatusConflict, "CAPACITY_EXCEEDED"},
		{fmt.Errorf("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/e", func(c *gin.Context) { RespondError(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/e", nil))

		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, gjson.Get(w.Body.String(), "code").String())
	}
	// internal errors never leak their message
	r := gin.New()
	r.GET("/e", func(c *gin.Context) { RespondError(c, fmt.Errorf("pq: password authentication failed")) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/e", nil))
	assert.Equal(t, "internal server error", gjson.Get(w.Body.String(), "error").String())
}

func TestAuditMiddlewarePutsClientIPOnContext(t *testing.T) {
	r := gin.New()
	r.Use(AuditMiddleware())
	r.GET("/ip", func(c *gin.Context) {
		c.String(http.StatusOK, auditlog.IPFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.9", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "garbage")
	req.RemoteAddr = "192.0.2.44:5123"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.44", w.Body.String())
}
