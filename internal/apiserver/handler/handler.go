package handler

import (
	"net/http"

	"github.com/billora/billora/internal/apiserver/cache"
	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/apiserver/middleware"
	"github.com/billora/billora/internal/auth/jwt"
	"github.com/billora/billora/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler carries the dependencies shared by all API handlers
type Handler struct {
	db         database.Database
	tenants    *cache.TenantCache
	jwtService *jwt.Service
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(db database.Database, tenants *cache.TenantCache, jwtService *jwt.Service, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		db:         db,
		tenants:    tenants,
		jwtService: jwtService,
		metrics:    m,
		logger:     logger,
	}
}

// tenantAndClaims extracts the request's tenant and token claims; both
// are guaranteed by the middleware chain on protected routes.
func (h *Handler) tenantAndClaims(c *gin.Context) (*database.Tenant, *jwt.Claims, bool) {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant id not provided"})
		return nil, nil, false
	}
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, nil, false
	}
	return tenant, claims, true
}

func (h *Handler) loginAttempt(status string) {
	if h.metrics != nil {
		h.metrics.LoginAttempt(status)
	}
}

func (h *Handler) userOp(operation, status string) {
	if h.metrics != nil {
		h.metrics.UserOp(operation, status)
	}
}
