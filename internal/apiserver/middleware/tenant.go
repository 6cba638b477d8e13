package middleware

import (
	"errors"
	"net/http"

	"github.com/billora/billora/internal/apiserver/cache"
	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TenantResolver creates a middleware that resolves the tenant named by
// the x-tenant-id header and attaches it to the request context. Routes
// that must be reachable without a tenant (tenant provisioning, the
// email lookup) simply do not mount this middleware.
func TenantResolver(tenants *cache.TenantCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cnst.HeaderTenantID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant id not provided"})
			return
		}

		tenant, err := tenants.GetByID(c.Request.Context(), id)
		if err != nil || !tenant.IsActive {
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				logger.Error("tenant lookup failed", zap.String("tenant_id", id), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid tenant"})
			return
		}

		c.Set(cnst.CtxTenant, tenant)
		c.Next()
	}
}

// TenantFromContext returns the tenant attached by TenantResolver
func TenantFromContext(c *gin.Context) (*database.Tenant, bool) {
	v, ok := c.Get(cnst.CtxTenant)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*database.Tenant)
	return tenant, ok
}
