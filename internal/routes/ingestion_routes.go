package routes

import (
	"github.com/gin-gonic/gin"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/middleware"
)

func IngestionRoutes(r *gin.Engine, h Handlers) {
	ingest := r.Group("/api/ingestion")
	ingest.Use(middleware.RequireAuth(h.Tokens))
	{
		ingest.GET("/preview", middleware.RequireRoles(auth.RoleAdmin, auth.RoleAnalyst), h.Ingestion.Preview)
		ingest.GET("/metadata", middleware.RequireRoles(auth.RoleAdmin, auth.RoleAnalyst), h.Ingestion.Metadata)
		ingest.POST("/load", middleware.RequireRoles(auth.RoleAdmin), h.Ingestion.Load)
	}
}
