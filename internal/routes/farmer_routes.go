package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
)

// FarmerPortalRoutes are the read-only views a farmer login gets.
func FarmerPortalRoutes(r *gin.RouterGroup) {
	farmer := r.Group("/farmer")
	farmer.Use(middleware.RequireRole(models.RoleFarmer))
	{
		farmer.GET("/deliveries", controllers.ListMyFarmerDeliveries)
		farmer.GET("/advances", controllers.ListMyAdvances)
	}
}
