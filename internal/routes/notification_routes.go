package routes

import (
	"github.com/gin-gonic/gin"

	"farmtally/internal/controllers"
	"farmtally/internal/middleware"
)

func NotificationRoutes(r *gin.RouterGroup) {
	n := r.Group("/notifications")
	n.Use(middleware.RequireAuth())
	{
		n.GET("", controllers.ListNotifications)
		n.POST("/read-all", controllers.MarkAllNotificationsRead)
		n.POST("/:id/read", controllers.MarkNotificationRead)
	}
}

func WebSocketRoutes(r *gin.Engine) {
	ws := r.Group("/ws")
	{
		ws.GET("/notifications", controllers.HandleNotificationSocket)
	}
}
