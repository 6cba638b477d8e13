package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/billora/billora/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(config.MetricsConfig{Namespace: "billora"})

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	m.LoginAttempt("failure")
	m.UserOp("create", "success")
	m.TenantCache("hit")

	// Scrape the registry and check our series made it out
	mw := httptest.NewRecorder()
	mreq, _ := http.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(mw, mreq)
	body := mw.Body.String()
	assert.Contains(t, body, "billora_http_requests_total")
	assert.Contains(t, body, "billora_login_attempts_total")
	assert.Contains(t, body, "billora_user_operations_total")
	assert.Contains(t, body, "billora_tenant_cache_total")
}
