package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
)

const apiKeyHeader = "X-API-Key"

// OpsAuthMiddleware guards operator endpoints such as the reconciliation
// trigger. An empty apiKey disables them with 503.
func OpsAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWith(c, apperrors.ErrOpsNotConfigured)
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(apiKeyHeader)), []byte(apiKey)) != 1 {
			logger.Named("http").Warnw("rejected operator request",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
			abortWith(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
