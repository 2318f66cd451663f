package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
)

// SetupRouter builds the API engine with every route group registered.
// Extra middleware (request logging, recovery) is passed in by the caller.
func SetupRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)

	r.GET("/health", controllers.Health)

	v1 := r.Group("/api/v1")
	AuthRoutes(v1)
	OrganizationRoutes(v1)
	FieldManagerRoutes(v1)
	FarmerRoutes(v1)
	LorryRoutes(v1)
	LorryRequestRoutes(v1)
	DeliveryRoutes(v1)
	PaymentRoutes(v1)
	DashboardRoutes(v1)
	ReportRoutes(v1)
	NotificationRoutes(v1)
	AdminRoutes(v1)
	FarmerPortalRoutes(v1)

	// Legacy clients call /api/auth/... directly.
	AuthRoutes(r.Group("/api"))

	WebSocketRoutes(r)

	return r
}
