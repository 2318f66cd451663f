package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
)

func FieldManagerRoutes(r *gin.RouterGroup) {
	fm := r.Group("/field-managers")
	fm.Use(middleware.RequireRole(models.RoleFarmAdmin))
	{
		fm.POST("", controllers.CreateFieldManager)
		fm.GET("", controllers.ListFieldManagers)
		fm.GET("/:id", controllers.GetFieldManager)
		fm.PUT("/:id", controllers.UpdateFieldManager)
		fm.DELETE("/:id", controllers.DeactivateFieldManager)
	}
}

func FarmerRoutes(r *gin.RouterGroup) {
	farmers := r.Group("/farmers")
	farmers.Use(middleware.RequireRole(models.RoleFarmAdmin, models.RoleFieldManager))
	{
		farmers.POST("", controllers.CreateFarmer)
		farmers.GET("", controllers.ListFarmers)
		farmers.GET("/:id", controllers.GetFarmer)
		farmers.PUT("/:id", controllers.UpdateFarmer)
		farmers.GET("/:id/statement", controllers.FarmerStatement)
		farmers.GET("/:id/advances", controllers.FarmerAdvances)
		farmers.DELETE("/:id", middleware.RequireRole(models.RoleFarmAdmin), controllers.DeleteFarmer)
	}
}

func LorryRoutes(r *gin.RouterGroup) {
	lorries := r.Group("/lorries")
	lorries.Use(middleware.RequireAuth())

	lorries.GET("/assigned", middleware.RequireRole(models.RoleFieldManager), controllers.ListAssignedLorries)
	lorries.PATCH("/:id/status", middleware.RequireRole(models.RoleFarmAdmin, models.RoleFieldManager), controllers.UpdateLorryStatus)
	lorries.GET("/locations/latest", middleware.RequireRole(models.RoleFarmAdmin), controllers.LatestLorryLocations)
	lorries.POST("/:id/locations", middleware.RequireRole(models.RoleFieldManager), controllers.ReportLorryLocation)
	lorries.GET("/:id/locations", middleware.RequireRole(models.RoleFarmAdmin, models.RoleFieldManager), controllers.LorryTrack)

	fa := lorries.Group("")
	fa.Use(middleware.RequireRole(models.RoleFarmAdmin))
	{
		fa.POST("", controllers.CreateLorry)
		fa.GET("", controllers.ListLorries)
		fa.GET("/:id", controllers.GetLorry)
		fa.PUT("/:id", controllers.UpdateLorry)
		fa.DELETE("/:id", controllers.DeleteLorry)
	}
}

func LorryRequestRoutes(r *gin.RouterGroup) {
	reqs := r.Group("/lorry-requests")
	reqs.Use(middleware.RequireRole(models.RoleFarmAdmin, models.RoleFieldManager))
	{
		reqs.GET("", controllers.ListLorryRequests)
		reqs.POST("", middleware.RequireRole(models.RoleFieldManager), controllers.CreateLorryRequest)
		reqs.DELETE("/:id", middleware.RequireRole(models.RoleFieldManager), controllers.CancelLorryRequest)
		reqs.POST("/:id/approve", middleware.RequireRole(models.RoleFarmAdmin), controllers.ApproveLorryRequest)
		reqs.POST("/:id/reject", middleware.RequireRole(models.RoleFarmAdmin), controllers.RejectLorryRequest)
	}
}

func DeliveryRoutes(r *gin.RouterGroup) {
	d := r.Group("/deliveries")
	d.Use(middleware.RequireRole(models.RoleFarmAdmin, models.RoleFieldManager))
	{
		d.POST("", controllers.CreateDelivery)
		d.GET("", controllers.ListDeliveries)
		d.GET("/:id", controllers.GetDelivery)
		d.PUT("/:id/weighing", controllers.RecordWeighing)
		d.POST("/:id/process", middleware.RequireRole(models.RoleFarmAdmin), controllers.ProcessDelivery)
		d.POST("/:id/complete", middleware.RequireRole(models.RoleFarmAdmin), controllers.CompleteDelivery)
	}
}

func PaymentRoutes(r *gin.RouterGroup) {
	p := r.Group("/advance-payments")
	p.Use(middleware.RequireRole(models.RoleFarmAdmin))
	{
		p.POST("", controllers.CreateAdvancePayment)
		p.GET("", controllers.ListAdvancePayments)
		p.GET("/:id", controllers.GetAdvancePayment)
	}
}

func DashboardRoutes(r *gin.RouterGroup) {
	d := r.Group("/dashboard")
	d.GET("/farm-admin", middleware.RequireRole(models.RoleFarmAdmin), controllers.FarmAdminDashboard)
	d.GET("/field-manager", middleware.RequireRole(models.RoleFieldManager), controllers.FieldManagerDashboard)
	d.GET("/farmer", middleware.RequireRole(models.RoleFarmer), controllers.FarmerDashboard)
}

func ReportRoutes(r *gin.RouterGroup) {
	rep := r.Group("/reports")
	rep.Use(middleware.RequireRole(models.RoleFarmAdmin))
	{
		rep.GET("/deliveries.xlsx", controllers.ExportDeliveries)
	}
}
