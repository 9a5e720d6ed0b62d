package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/eureka-sidecar/errors"
	"github.com/kbukum/eureka-sidecar/logger"
)

// LoopbackOnly rejects callers whose remote address is not a loopback
// address (127.0.0.0/8 or ::1) with 403. Forwarding headers are ignored.
func LoopbackOnly(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}
		log.Warn("Rejected non-local caller", map[string]interface{}{
			"path":   c.Request.URL.Path,
			"remote": c.Request.RemoteAddr,
		})
		c.AbortWithStatusJSON(http.StatusForbidden,
			apperrors.Forbidden("This endpoint only accepts local requests.").ToResponse())
	}
}

// IsLoopback reports whether a host or host:port names a loopback address.
func IsLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
