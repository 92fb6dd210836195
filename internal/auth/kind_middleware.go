package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/database"
	"jamm/backend/internal/models"
)

// RequireKind creates a gin middleware restricting a route to accounts of
// the given kind. It must be used AFTER the standard AuthMiddleware.
func RequireKind(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := c.Get("accountID")
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not authenticated"})
			return
		}

		var account models.Account
		if err := database.DB.First(&account, accountID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated account not found"})
			return
		}

		if account.Kind != kind {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account kind not allowed for this operation"})
			return
		}

		c.Next()
	}
}
