// auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"request-review-service/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores the acting admin's
// identity in the context. On an expired token it refreshes once through the
// auth service (when the caller supplies X-Refresh-Token) and then gives up.
func AuthMiddleware(client *auth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		user, err := client.ValidateToken(token)

		if errors.Is(err, auth.ErrTokenExpired) {
			refresh := c.GetHeader("X-Refresh-Token")
			if refresh == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				c.Abort()
				return
			}
			token, err = client.Refresh(refresh)
			if err == nil {
				user, err = client.ValidateToken(token)
			}
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("adminID", user.ID)
		c.Set("adminName", user.Name)
		c.Set("adminPermissions", user.Permissions)
		c.Next()
	}
}
