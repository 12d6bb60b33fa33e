package middleware

import (
	"net/http"
	"strings"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxAccountID is the gin.Context key under which JWTMiddleware stores the
// authenticated account's UUID.
const CtxAccountID = "accountID"

// ──────────────────────────────────────────────────────────────────────────────
// JWTMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// JWTMiddleware validates the Bearer token in the Authorization header.
// On success it stores the account UUID in the gin context.
func JWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": domain.ErrUnauthorized.Error(),
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		accountID, err := authSvc.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": domain.ErrTokenInvalid.Error(),
			})
			return
		}

		c.Set(CtxAccountID, accountID)
		c.Next()
	}
}

// GetAccountID retrieves the authenticated account's UUID from the gin
// context.  Returns uuid.Nil if the middleware was not applied.
func GetAccountID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(CtxAccountID)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
