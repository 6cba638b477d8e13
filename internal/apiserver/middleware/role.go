package middleware

import (
	"net/http"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/gin-gonic/gin"
)

// RequireRoles creates a middleware that rejects authenticated callers
// whose role is not in the allowed set. Routes without this middleware
// only require a valid token.
func RequireRoles(roles ...database.Role) gin.HandlerFunc {
	allowed := make(map[database.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := allowed[database.Role(claims.Role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
