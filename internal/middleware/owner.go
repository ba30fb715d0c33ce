package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
)

// OwnerProvisioner creates the users row for an authenticated subject.
type OwnerProvisioner interface {
	EnsureUser(ctx context.Context, userID, email string) error
}

// ProvisionOwner must run after AuthMiddleware. Owned rows reference users,
// so the subject is recorded before any handler writes on its behalf.
func ProvisionOwner(owners OwnerProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(userIDKey)
		if userID == "" {
			abortWith(c, apperrors.ErrUnauthorized)
			return
		}
		if err := owners.EnsureUser(c.Request.Context(), userID, c.GetString(emailKey)); err != nil {
			logger.Named("http").Errorw("owner provisioning failed", "user_id", userID, "error", err)
			abortWith(c, apperrors.ErrInternalServer)
			return
		}
		c.Next()
	}
}
