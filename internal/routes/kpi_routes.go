package routes

import (
	"github.com/gin-gonic/gin"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/middleware"
)

func KPIRoutes(r *gin.Engine, h Handlers) {
	kpi := r.Group("/api/kpi")
	kpi.Use(middleware.RequireAuth(h.Tokens), middleware.RequireRoles(auth.AllRoles...))
	{
		kpi.GET("", h.KPI.ListRoutes)
		kpi.GET("/:routeCode/:week", h.KPI.GetKPI)
		kpi.POST("/:routeCode/trend", h.KPI.Trend)
	}
}
