package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/apiserver/middleware"
	"github.com/billora/billora/internal/common/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errAdminExists = errors.New("admin already exists")
	errLastAdmin   = errors.New("cannot delete the last admin")
)

func toUserResponse(u *database.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateUser handles user creation by an admin within their own tenant
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, _, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now()
	newUser := &database.User{
		ID:           uuid.NewString(),
		TenantID:     tenant.ID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         database.Role(req.Role),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.db.CreateUser(c.Request.Context(), newUser); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			h.userOp("create", "conflict")
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		h.logger.Error("failed to create user", zap.String("tenant_id", tenant.ID), zap.Error(err))
		h.userOp("create", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.userOp("create", "success")
	c.JSON(http.StatusCreated, toUserResponse(newUser))
}

// CreateFirstAdmin bootstraps the first admin account of a tenant. It
// only succeeds while the tenant has zero admins; the created user's
// role is forced to admin regardless of the request. The zero-admin
// check and the insert run in one transaction so concurrent bootstrap
// attempts cannot both pass the guard.
func (h *Handler) CreateFirstAdmin(c *gin.Context) {
	var req dto.CreateFirstAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant id not provided"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now()
	newUser := &database.User{
		ID:           uuid.NewString(),
		TenantID:     tenant.ID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         database.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		count, err := h.db.CountAdmins(ctx, tenant.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return errAdminExists
		}
		return h.db.CreateUser(ctx, newUser)
	})

	switch {
	case err == nil:
		h.userOp("bootstrap_admin", "success")
		c.JSON(http.StatusCreated, toUserResponse(newUser))
	case errors.Is(err, errAdminExists):
		h.userOp("bootstrap_admin", "conflict")
		c.JSON(http.StatusConflict, gin.H{"error": "admin already exists"})
	case errors.Is(err, database.ErrDuplicate):
		h.userOp("bootstrap_admin", "conflict")
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
	default:
		h.logger.Error("failed to bootstrap admin", zap.String("tenant_id", tenant.ID), zap.Error(err))
		h.userOp("bootstrap_admin", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ListUsers handles the paginated user listing of the caller's tenant
func (h *Handler) ListUsers(c *gin.Context) {
	var q dto.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, _, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	users, total, err := h.db.ListUsers(c.Request.Context(), tenant.ID, database.UserFilter{
		Search: q.Search,
		Role:   database.Role(q.Role),
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		h.logger.Error("failed to list users", zap.String("tenant_id", tenant.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	data := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		data[i] = toUserResponse(u)
	}

	totalPages := (total + int64(q.Limit) - 1) / int64(q.Limit)
	c.JSON(http.StatusOK, dto.ListUsersResponse{
		Data: data,
		Meta: dto.PaginationMeta{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: totalPages,
		},
	})
}

// GetMe returns the caller's own record
func (h *Handler) GetMe(c *gin.Context) {
	tenant, claims, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), tenant.ID, claims.UserID())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("failed to get user", zap.String("user_id", claims.UserID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe handles a self-service profile update. The request shape
// has no role field; a user may never change their own role.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, claims, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), tenant.ID, claims.UserID())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("failed to get user", zap.String("user_id", claims.UserID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.applyUserUpdate(user, req.FullName, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update user", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.userOp("update_profile", "success")
	c.JSON(http.StatusOK, toUserResponse(user))
}

// GetUser returns a user by ID within the caller's tenant. A user
// belonging to another tenant yields not found, never a leak.
func (h *Handler) GetUser(c *gin.Context) {
	tenant, _, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), tenant.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("failed to get user", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateUser handles an admin update of any user in the tenant.
// Changing another admin's role away from admin is blocked
// unconditionally, regardless of how many admins remain.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, _, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), tenant.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("failed to get user", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.Role != "" && user.Role == database.RoleAdmin && database.Role(req.Role) != database.RoleAdmin {
		h.userOp("update", "forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot change the role of an admin"})
		return
	}

	if req.Role != "" {
		user.Role = database.Role(req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := h.applyUserUpdate(user, req.FullName, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update user", zap.String("user_id", user.ID), zap.Error(err))
		h.userOp("update", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.userOp("update", "success")
	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUser handles user deletion. Self-deletion is forbidden, and so
// is deleting an admin when the tenant would be left without one; the
// admin count check and the delete run in one transaction.
func (h *Handler) DeleteUser(c *gin.Context) {
	tenant, claims, ok := h.tenantAndClaims(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == claims.UserID() {
		h.userOp("delete", "forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete your own account"})
		return
	}

	err := h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		user, err := h.db.GetUserByID(ctx, tenant.ID, id)
		if err != nil {
			return err
		}
		if user.Role == database.RoleAdmin {
			count, err := h.db.CountAdmins(ctx, tenant.ID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return errLastAdmin
			}
		}
		return h.db.DeleteUser(ctx, tenant.ID, id)
	})

	switch {
	case err == nil:
		h.userOp("delete", "success")
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, errLastAdmin):
		h.userOp("delete", "forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete the last admin"})
	default:
		h.logger.Error("failed to delete user", zap.String("user_id", id), zap.Error(err))
		h.userOp("delete", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// applyUserUpdate applies the shared profile fields of an update. A
// present password is hashed; the plaintext is never stored.
func (h *Handler) applyUserUpdate(user *database.User, fullName, password string) error {
	if fullName != "" {
		user.FullName = fullName
	}
	if password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hashedPassword)
	}
	user.UpdatedAt = time.Now()
	return nil
}
