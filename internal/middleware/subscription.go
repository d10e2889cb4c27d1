package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// Subscription gates product routes behind an active subscription. Must run
// after JWT so claims are present in the context.
func Subscription(subService *service.SubscriptionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subService == nil {
			c.Next()
			return
		}
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowed, err := subService.Allowed(c.Request.Context(), claims.UserID, claims.Email, claims.Role)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, appErrors.ErrSubscriptionRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}
