package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billora/billora/internal/apiserver/cache"
	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/apiserver/handler"
	"github.com/billora/billora/internal/apiserver/middleware"
	"github.com/billora/billora/internal/auth/jwt"
	"github.com/billora/billora/internal/common/config"
	"github.com/billora/billora/pkg/logger"
	"github.com/billora/billora/pkg/metrics"
	"github.com/billora/billora/pkg/trace"
	"github.com/billora/billora/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Billora API Server",
		Long:  `Billora API Server provides authentication and user management for the collections platform`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	path := configPath
	if path == "" {
		path = "apiserver.yaml"
	}
	cfg, cfgPath, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracing(ctx, &cfg.Tracing, lg)
		if err != nil {
			lg.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				lg.Warn("failed to shut down tracing", zap.Error(err))
			}
		}()
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		lg.Fatal("failed to initialize database",
			zap.String("type", cfg.Database.Type),
			zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		lg.Fatal("failed to initialize jwt service", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	tenants := cache.NewTenantCache(db, &cfg.Cache, m, lg)
	h := handler.NewHandler(db, tenants, jwtService, m, lg)

	router := newRouter(cfg, h, tenants, jwtService, m, lg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		lg.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("forced shutdown", zap.Error(err))
	}
}

func newRouter(cfg *config.APIServerConfig, h *handler.Handler, tenants *cache.TenantCache, jwtService *jwt.Service, m *metrics.Metrics, lg *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	api := router.Group("/api")

	// reachable before a tenant is known
	api.GET("/auth/tenant", h.TenantLookup)
	api.POST("/tenants", h.CreateTenant)
	api.GET("/tenants", h.ListTenants)
	api.GET("/tenants/:id", h.GetTenant)
	api.PATCH("/tenants/:id", h.UpdateTenant)

	tenantGroup := api.Group("", middleware.TenantResolver(tenants, lg))

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
	tenantGroup.POST("/auth/login", loginLimiter.Middleware(), h.Login)
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

	return router
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
