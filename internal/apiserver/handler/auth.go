package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/apiserver/middleware"
	"github.com/billora/billora/internal/common/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt hash of a random string. When the login
// email does not match any user we still run a hash comparison against
// it, so that response timing does not reveal whether the user exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Login handles user login within the tenant resolved from the request
// header. The failure response never distinguishes a missing user from
// a wrong password.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant id not provided"})
		return
	}

	email := strings.ToLower(req.Email)
	user, err := h.db.GetUserByEmail(c.Request.Context(), tenant.ID, email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.Error("user lookup failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
		}
		// Burn a comparison so missing users cost the same as wrong passwords
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
		h.loginAttempt("failure")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil || !user.IsActive {
		h.loginAttempt("failure")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, string(user.Role), user.TenantID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.loginAttempt("success")
	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		User: &dto.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     string(user.Role),
		},
	})
}

// TenantLookup resolves a tenant from the domain part of an email
// address, so a client can discover which tenant it belongs to before
// logging in.
func (h *Handler) TenantLookup(c *gin.Context) {
	email := c.Query("email")
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}

	domain := strings.ToLower(email[at+1:])
	tenant, err := h.db.GetTenantByDomain(c.Request.Context(), domain)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.Error("tenant lookup failed", zap.String("domain", domain), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	c.JSON(http.StatusOK, dto.TenantLookupResponse{TenantID: tenant.ID})
}
