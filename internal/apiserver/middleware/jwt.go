package middleware

import (
	"net/http"
	"strings"

	"github.com/billora/billora/internal/auth/jwt"
	"github.com/billora/billora/internal/common/cnst"
	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware creates a middleware that validates bearer tokens.
// When a tenant has already been resolved for the request, a token
// minted for a different tenant is rejected.
func JWTAuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(cnst.HeaderAuthorization)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if tenant, ok := TenantFromContext(c); ok && claims.TenantID != tenant.ID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(cnst.CtxClaims, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims attached by JWTAuthMiddleware
func ClaimsFromContext(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(cnst.CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
