package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/billora/billora/internal/apiserver/cache"
	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/auth/jwt"
	"github.com/billora/billora/internal/common/cnst"
	"github.com/billora/billora/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewSQLite(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "billora.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedTenant(t *testing.T, db database.Database, active bool) *database.Tenant {
	t.Helper()
	tenant := &database.Tenant{
		ID:       uuid.NewString(),
		Name:     "Acme",
		Domain:   uuid.NewString() + ".example.com",
		IsActive: active,
	}
	require.NoError(t, db.CreateTenant(context.Background(), tenant))
	return tenant
}

func TestTenantResolver(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	tenants := cache.NewTenantCache(db, &config.CacheConfig{Type: "memory", TTL: time.Minute}, nil, zap.NewNop())

	router := gin.New()
	router.GET("/probe", TenantResolver(tenants, zap.NewNop()), func(c *gin.Context) {
		tenant, ok := TenantFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": tenant.ID})
	})

	probe := func(tenantID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if tenantID != "" {
			req.Header.Set(cnst.HeaderTenantID, tenantID)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("active tenant passes", func(t *testing.T) {
		tenant := seedTenant(t, db, true)
		w := probe(tenant.ID)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := probe("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "tenant id not provided")
	})

	t.Run("unknown tenant", func(t *testing.T) {
		w := probe("no-such-tenant")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid tenant")
	})

	t.Run("inactive tenant", func(t *testing.T) {
		tenant := seedTenant(t, db, false)
		w := probe(tenant.ID)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid tenant")
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: "test-secret-key-that-is-long-enough!",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	tenant := &database.Tenant{ID: uuid.NewString(), IsActive: true}

	router := gin.New()
	router.GET("/probe",
		func(c *gin.Context) { c.Set(cnst.CtxTenant, tenant) },
		JWTAuthMiddleware(jwtService),
		func(c *gin.Context) {
			claims, ok := ClaimsFromContext(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"sub": claims.UserID()})
		})

	probe := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if authHeader != "" {
			req.Header.Set(cnst.HeaderAuthorization, authHeader)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token for the request tenant", func(t *testing.T) {
		token, err := jwtService.GenerateToken("user-1", "u@acme.example.com", "collector", tenant.ID)
		require.NoError(t, err)
		w := probe("Bearer " + token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("token minted for another tenant", func(t *testing.T) {
		token, err := jwtService.GenerateToken("user-1", "u@acme.example.com", "collector", "other-tenant")
		require.NoError(t, err)
		w := probe("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, probe("").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, probe("Token abc").Code)
		assert.Equal(t, http.StatusUnauthorized, probe("Bearer").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, probe("Bearer not.a.token").Code)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived, err := jwt.NewService(jwt.Config{
			SecretKey: "test-secret-key-that-is-long-enough!",
			Duration:  time.Nanosecond,
		})
		require.NoError(t, err)
		token, err := shortLived.GenerateToken("user-1", "u@acme.example.com", "collector", tenant.ID)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, http.StatusUnauthorized, probe("Bearer "+token).Code)
	})
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/admin-only",
		func(c *gin.Context) {
			if role := c.GetHeader("x-test-role"); role != "" {
				c.Set(cnst.CtxClaims, &jwt.Claims{Role: role})
			}
		},
		RequireRoles(database.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/staff",
		func(c *gin.Context) {
			if role := c.GetHeader("x-test-role"); role != "" {
				c.Set(cnst.CtxClaims, &jwt.Claims{Role: role})
			}
		},
		RequireRoles(database.RoleAdmin, database.RoleSupervisor),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	probe := func(path, role string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if role != "" {
			req.Header.Set("x-test-role", role)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, probe("/admin-only", "admin"))
	assert.Equal(t, http.StatusForbidden, probe("/admin-only", "supervisor"))
	assert.Equal(t, http.StatusForbidden, probe("/admin-only", "collector"))
	assert.Equal(t, http.StatusUnauthorized, probe("/admin-only", ""))

	assert.Equal(t, http.StatusOK, probe("/staff", "admin"))
	assert.Equal(t, http.StatusOK, probe("/staff", "supervisor"))
	assert.Equal(t, http.StatusForbidden, probe("/staff", "seller"))
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(3, 50*time.Millisecond)
	router := gin.New()
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	probe := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, probe().Code)
	}

	w := probe()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// a different client is unaffected
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the window resets
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, http.StatusOK, probe().Code)
}
