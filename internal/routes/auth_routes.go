package routes

import (
	"github.com/gin-gonic/gin"

	"scci_dashboard/internal/auth"
	"scci_dashboard/internal/middleware"
)

func AuthRoutes(r *gin.Engine, h Handlers) {
	group := r.Group("/auth")
	{
		group.POST("/login", h.Auth.Login)
		group.POST("/register",
			middleware.RequireAuth(h.Tokens),
			middleware.RequireRoles(auth.RoleAdmin),
			h.Auth.Register)
	}
}
