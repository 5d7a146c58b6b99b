package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/internal/auditlog"
)

// Proxy headers checked in order; the first valid address wins.
var clientIPHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "CF-Connecting-IP"}

// AuditMiddleware resolves the caller address once per request and puts it on the request
// context, where auditlog.Service reads it for every row it writes.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c.Request)
		c.Set("client_ip", ip)
		c.Request = c.Request.WithContext(auditlog.ContextWithIP(c.Request.Context(), ip))
		c.Next()
	}
}

func clientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		first, _, _ := strings.Cut(r.Header.Get(h), ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
