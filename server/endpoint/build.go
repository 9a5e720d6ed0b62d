package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/version"
)

// Version reports the build the sidecar was compiled from.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// Metrics mounts a Prometheus scrape handler.
func Metrics(handler http.Handler) gin.HandlerFunc {
	return gin.WrapH(handler)
}
