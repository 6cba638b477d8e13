package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/common/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func toTenantResponse(t *database.Tenant) *dto.TenantResponse {
	return &dto.TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Domain:    t.Domain,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateTenant provisions a new tenant. The domain is normalized to
// lower case and must be unique across all tenants.
func (h *Handler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	tenant := &database.Tenant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Domain:    strings.ToLower(req.Domain),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.db.CreateTenant(c.Request.Context(), tenant); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "domain already in use"})
			return
		}
		h.logger.Error("failed to create tenant", zap.String("domain", tenant.Domain), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toTenantResponse(tenant))
}

// ListTenants returns all tenants
func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.db.ListTenants(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list tenants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	data := make([]*dto.TenantResponse, len(tenants))
	for i, t := range tenants {
		data[i] = toTenantResponse(t)
	}
	c.JSON(http.StatusOK, data)
}

// GetTenant returns a tenant by ID
func (h *Handler) GetTenant(c *gin.Context) {
	tenant, err := h.db.GetTenantByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
		h.logger.Error("failed to get tenant", zap.String("tenant_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toTenantResponse(tenant))
}

// UpdateTenant updates a tenant's name or active flag. The cached copy
// is invalidated so deactivation takes effect on the next request.
func (h *Handler) UpdateTenant(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.db.GetTenantByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
		h.logger.Error("failed to get tenant", zap.String("tenant_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	tenant.UpdatedAt = time.Now()

	if err := h.db.UpdateTenant(c.Request.Context(), tenant); err != nil {
		h.logger.Error("failed to update tenant", zap.String("tenant_id", tenant.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if h.tenants != nil {
		h.tenants.Invalidate(c.Request.Context(), tenant.ID)
	}
	c.JSON(http.StatusOK, toTenantResponse(tenant))
}
