package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
	"farmtally/internal/middleware"
)

func AuthRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/refresh", controllers.Refresh)
	}

	private := auth.Group("")
	private.Use(middleware.RequireAuth())
	{
		private.POST("/logout", controllers.Logout)
		private.GET("/profile", controllers.GetProfile)
		private.PUT("/profile", controllers.UpdateProfile)
		private.PUT("/change-password", controllers.ChangePassword)
	}
}
