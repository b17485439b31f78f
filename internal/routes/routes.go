package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/controllers"
	"scci_dashboard/internal/logger"
	"scci_dashboard/internal/middleware"
)

// Handlers bundles everything the route table dispatches to.
type Handlers struct {
	Tokens    middleware.TokenParser
	Auth      *controllers.AuthController
	KPI       *controllers.KPIController
	Map       *controllers.MapController
	Ingestion *controllers.IngestionController
	Health    *controllers.HealthController
}

func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(
		ginlog.WithWriter(logger.Writer()),
		ginlog.WithSkipPath([]string{"/health", "/metrics"}),
	))
	r.Use(middleware.Metrics())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics",
		middleware.RequireAuth(h.Tokens),
		middleware.RequireRoles(auth.RoleAdmin),
		gin.WrapH(promhttp.Handler()),
	)

	AuthRoutes(r, h)
	KPIRoutes(r, h)
	MapRoutes(r, h)
	IngestionRoutes(r, h)

	return r
}
