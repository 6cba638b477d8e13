package handler

import (
	"net/http"
	"testing"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/common/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTenant(t *testing.T) {
	env := newTestEnv(t)

	t.Run("provisions a tenant", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tenants", reqOpts{
			body: dto.CreateTenantRequest{Name: "Acme Collections", Domain: "Acme.example.com"},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decodeJSON[dto.TenantResponse](t, w)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "Acme Collections", resp.Name)
		assert.Equal(t, "acme.example.com", resp.Domain, "domain is normalized to lower case")
		assert.True(t, resp.IsActive)
	})

	t.Run("duplicate domain", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tenants", reqOpts{
			body: dto.CreateTenantRequest{Name: "Acme Again", Domain: "acme.example.com"},
		})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "domain already in use", decodeJSON[map[string]string](t, w)["error"])
	})

	t.Run("invalid domain", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tenants", reqOpts{
			body: dto.CreateTenantRequest{Name: "Bad", Domain: "not a domain"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing name", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tenants", reqOpts{
			body: map[string]string{"domain": "nameless.example.com"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAndListTenants(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedTenant(t, "first.example.com")
	env.seedTenant(t, "second.example.com")

	t.Run("get by id", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/tenants/"+first.ID, reqOpts{})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "first.example.com", decodeJSON[dto.TenantResponse](t, w).Domain)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/tenants/no-such-id", reqOpts{})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/tenants", reqOpts{})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeJSON[[]*dto.TenantResponse](t, w), 2)
	})
}

func TestUpdateTenant(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, "acme.example.com")
	user := env.seedUser(t, tenant.ID, "me@acme.example.com", "secret123", database.RoleCollector)
	token := env.tokenFor(t, user)

	t.Run("rename", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/tenants/"+tenant.ID, reqOpts{
			body: dto.UpdateTenantRequest{Name: "Acme Renamed"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Acme Renamed", decodeJSON[dto.TenantResponse](t, w).Name)
	})

	t.Run("deactivation locks the tenant out immediately", func(t *testing.T) {
		// warm the tenant cache first
		w := env.do(t, http.MethodGet, "/users/me", reqOpts{tenantID: tenant.ID, token: token})
		require.Equal(t, http.StatusOK, w.Code)

		inactive := false
		w = env.do(t, http.MethodPatch, "/tenants/"+tenant.ID, reqOpts{
			body: dto.UpdateTenantRequest{IsActive: &inactive},
		})
		require.Equal(t, http.StatusOK, w.Code)

		// the cached copy was invalidated, so the very next request sees
		// the deactivated tenant
		w = env.do(t, http.MethodGet, "/users/me", reqOpts{tenantID: tenant.ID, token: token})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid tenant", decodeJSON[map[string]string](t, w)["error"])
	})

	t.Run("unknown id", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/tenants/no-such-id", reqOpts{
			body: dto.UpdateTenantRequest{Name: "Ghost"},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
