package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
	"farmtally/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browsers authenticate with the token query parameter
	},
}

// Hub receives every notification created by the handlers.
var Hub = notify.Default

// queueNotifications persists one notification per user inside tx. Call
// publishNotifications with the result once tx has committed.
func queueNotifications(tx *gorm.DB, userIDs []uint, kind, title, message string) ([]models.Notification, error) {
	out := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, models.Notification{UserID: id, Type: kind, Title: title, Message: message})
	}
	if len(out) == 0 {
		return nil, nil
	}
	if err := tx.Create(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func publishNotifications(list []models.Notification) {
	for _, n := range list {
		Hub.Publish(n.UserID, n)
	}
}

// farmAdminIDs returns the active farm admins of orgID.
func farmAdminIDs(tx *gorm.DB, orgID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.User{}).
		Where("organization_id = ? AND role = ? AND is_active = ?", orgID, models.RoleFarmAdmin, true).
		Pluck("id", &ids).Error
	return ids, err
}

func ListNotifications(c *gin.Context) {
	q := config.DB.Where("user_id = ?", currentUserID(c)).Order("id desc").Limit(100)
	if c.Query("unread") == "true" {
		q = q.Where("read_at IS NULL")
	}
	var list []models.Notification
	if err := q.Find(&list).Error; err != nil {
		dbError(c, err, "Notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := config.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, currentUserID(c)).
		Update("read_at", time.Now())
	if res.Error != nil {
		dbError(c, res.Error, "Notification")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func MarkAllNotificationsRead(c *gin.Context) {
	res := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", currentUserID(c)).
		Update("read_at", time.Now())
	if res.Error != nil {
		dbError(c, res.Error, "Notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}

// HandleNotificationSocket upgrades to a websocket that streams the caller's
// new notifications. Browsers cannot set headers, so the access token comes
// in the token query parameter.
func HandleNotificationSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, status, msg := middleware.Authenticate(c, tokenString)
	if claims == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("notification socket upgrade failed")
		return
	}
	Hub.Serve(claims.UserID, conn)
}
