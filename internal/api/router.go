package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/courtside/academy-platform/docs"
	"github.com/courtside/academy-platform/internal/api/handler"
	"github.com/courtside/academy-platform/internal/api/middleware"
	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
	"github.com/courtside/academy-platform/internal/ratelimit"
)

// Deps bundles the wired components the router mounts.
type Deps struct {
	DB        *mongo.Database
	Redis     *redis.Client // nil unless the Redis rate limiter is selected
	RBAC      ports.RBACService
	Audit     ports.AuditService
	Migration ports.MigrationService
	Limiter   ratelimit.Limiter
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rbac"))

	// --- Handlers ---
	roleHandler := handler.NewRoleHandler(deps.RBAC)
	auditHandler := handler.NewAuditHandler(deps.Audit)
	migrationHandler := handler.NewMigrationHandler(deps.Migration)

	// --- Health probes and operational routes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Tenant-scoped API ---
	auth := middleware.Auth(deps.JWTSecret)
	tenants := e.Group("/api/v1/tenants/:tenant_id", auth)

	tenants.GET("/permissions/check", roleHandler.CheckPermission)
	tenants.GET("/roles/me", roleHandler.Me)
	tenants.GET("/migration/status", migrationHandler.Status)
	tenants.POST("/migration/skip", migrationHandler.Skip)

	// Role mutation is rate limited per principal on top of the service's
	// own per-tenant limiter.
	roleChangeLimit := middleware.RateLimit(deps.Limiter, "role_change", deps.Logger)
	tenants.POST("/roles", roleHandler.Assign, roleChangeLimit)
	tenants.DELETE("/roles/:principal_id", roleHandler.Revoke, roleChangeLimit)
	tenants.GET("/roles", roleHandler.List)

	tenants.GET("/audit", auditHandler.Recent,
		middleware.RequirePermission(deps.RBAC, domain.PermViewAuditLog))

	return e
}
