package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
)

func AdminRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleApplicationAdmin))
	{
		admin.GET("/stats", controllers.AdminStats)
		admin.GET("/users", controllers.ListUsers)
	}
}

func OrganizationRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organizations")

	mine := orgs.Group("/mine")
	mine.Use(middleware.RequireRole(models.RoleFarmAdmin))
	{
		mine.GET("", controllers.GetMyOrganization)
		mine.PUT("", controllers.UpdateMyOrganization)
	}

	all := orgs.Group("")
	all.Use(middleware.RequireRole(models.RoleApplicationAdmin))
	{
		all.GET("", controllers.ListOrganizations)
		all.POST("", controllers.CreateOrganization)
		all.GET("/:id", controllers.GetOrganization)
		all.PUT("/:id", controllers.UpdateOrganization)
		all.DELETE("/:id", controllers.DeactivateOrganization)
	}
}
