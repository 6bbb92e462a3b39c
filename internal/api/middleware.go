package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	tenantHeader = "X-Tenant-ID"
	tenantKey    = "tenant_id"
)

// RequireTenant rejects requests without a tenant header.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader(tenantHeader))
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + tenantHeader + " header"})
			return
		}
		c.Set(tenantKey, tenant)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"tenant_id": tenantID(c),
		}).Info("Handled request")
	}
}
