package routes

import (
	"github.com/gin-gonic/gin"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/middleware"
)

func MapRoutes(r *gin.Engine, h Handlers) {
	m := r.Group("/api/map")
	m.Use(middleware.RequireAuth(h.Tokens), middleware.RequireRoles(auth.AllRoles...))
	{
		m.GET("/:routeCode", h.Map.GetRouteMap)
	}
}
