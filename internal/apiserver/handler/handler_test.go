package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/billora/billora/internal/apiserver/cache"
	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/apiserver/middleware"
	"github.com/billora/billora/internal/auth/jwt"
	"github.com/billora/billora/internal/common/cnst"
	"github.com/billora/billora/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-long-enough!"

type testEnv struct {
	db     database.Database
	jwt    *jwt.Service
	router *gin.Engine
}

// newTestEnv wires a handler over a throwaway sqlite database with the
// same middleware chain the server mounts, so tests exercise tenant
// resolution, token validation and role checks end to end.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := database.NewSQLite(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "billora.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	tenants := cache.NewTenantCache(db, &config.CacheConfig{Type: "memory", TTL: time.Minute}, nil, logger)
	h := NewHandler(db, tenants, jwtService, nil, logger)

	router := gin.New()
	router.GET("/auth/tenant", h.TenantLookup)
	router.POST("/tenants", h.CreateTenant)
	router.GET("/tenants", h.ListTenants)
	router.GET("/tenants/:id", h.GetTenant)
	router.PATCH("/tenants/:id", h.UpdateTenant)

	tenantGroup := router.Group("", middleware.TenantResolver(tenants, logger))
	tenantGroup.POST("/auth/login", h.Login)
	tenantGroup.POST("/users/first-admin", h.CreateFirstAdmin)

	authed := tenantGroup.Group("", middleware.JWTAuthMiddleware(jwtService))
	authed.GET("/users/me", h.GetMe)
	authed.PATCH("/users/me", h.UpdateMe)

	admin := authed.Group("", middleware.RequireRoles(database.RoleAdmin))
	admin.POST("/users", h.CreateUser)
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/:id", h.GetUser)
	admin.PATCH("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)

	return &testEnv{db: db, jwt: jwtService, router: router}
}

func (e *testEnv) seedTenant(t *testing.T, domain string) *database.Tenant {
	t.Helper()
	now := time.Now()
	tenant := &database.Tenant{
		ID:        uuid.NewString(),
		Name:      domain,
		Domain:    domain,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.db.CreateTenant(context.Background(), tenant))
	return tenant
}

func (e *testEnv) seedUser(t *testing.T, tenantID, email, password string, role database.Role) *database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	u := &database.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *database.User) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(u.ID, u.Email, string(u.Role), u.TenantID)
	require.NoError(t, err)
	return token
}

type reqOpts struct {
	tenantID string
	token    string
	body     any
}

func (e *testEnv) do(t *testing.T, method, path string, opts reqOpts) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if opts.body != nil {
		data, err := json.Marshal(opts.body)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if opts.tenantID != "" {
		req.Header.Set(cnst.HeaderTenantID, opts.tenantID)
	}
	if opts.token != "" {
		req.Header.Set(cnst.HeaderAuthorization, "Bearer "+opts.token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
