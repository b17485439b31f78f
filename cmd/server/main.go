package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/config"
	"scci_dashboard/internal/controllers"
	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/ingestion"
	"scci_dashboard/internal/kpi"
	"scci_dashboard/internal/logger"
	"scci_dashboard/internal/middleware"
	"scci_dashboard/internal/routes"
	"scci_dashboard/internal/store"
)

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Initialize structured logging to file
	logger.Setup(cfg)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	gin.DefaultWriter = logger.Writer()

	// Connect to the database
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	repo := store.New(db)
	reader, err := dataset.NewReader(cfg.DataDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open dataset reader")
	}
	defer reader.Close()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(repo, tokens)
	if err := authSvc.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.WithError(err).Fatal("failed to bootstrap admin user")
	}

	loader := ingestion.NewService(reader, repo, cfg.TelemetryFile, cfg.PerformanceFile)

	r := routes.SetupRouter(routes.Handlers{
		Tokens:    tokens,
		Auth:      controllers.NewAuthController(authSvc),
		KPI:       controllers.NewKPIController(kpi.NewService(repo)),
		Map:       controllers.NewMapController(repo),
		Ingestion: controllers.NewIngestionController(reader, loader, cfg.TelemetryFile, cfg.PerformanceFile),
		Health:    controllers.NewHealthController(started),
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(cfg.AllowedOrigins, r)

	addr := "0.0.0.0:" + cfg.Port
	logrus.WithField("addr", addr).Info("server running")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
