package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

var (
	errNotPending       = errors.New("request is no longer pending")
	errLorryUnavailable = errors.New("lorry is not available")
)

type lorryRequestInput struct {
	RequiredDate     string          `json:"required_date" binding:"required"`
	Priority         models.Priority `json:"priority"`
	Location         string          `json:"location" binding:"required"`
	ExpectedVolumeKg float64         `json:"expected_volume_kg" binding:"gte=0"`
	Purpose          string          `json:"purpose"`
}

// CreateLorryRequest lets a field manager ask for a lorry.
func CreateLorryRequest(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input lorryRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	required, err := parseFlexibleDate(input.RequiredDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "required_date must be YYYY-MM-DD or RFC3339"})
		return
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	switch input.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
		return
	}

	managerID := currentUserID(c)
	req := models.LorryRequest{
		OrganizationID:   orgID,
		ManagerID:        managerID,
		RequiredDate:     required,
		Priority:         input.Priority,
		Location:         input.Location,
		ExpectedVolumeKg: input.ExpectedVolumeKg,
		Purpose:          input.Purpose,
		Status:           models.RequestPending,
	}

	var sent []models.Notification
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		admins, err := farmAdminIDs(tx, orgID)
		if err != nil {
			return err
		}
		sent, err = queueNotifications(tx, admins, "LORRY_REQUEST_CREATED", "New lorry request",
			fmt.Sprintf("%s priority request for %s on %s", req.Priority, req.Location, required.Format(dateLayout)))
		return err
	})
	if err != nil {
		dbError(c, err, "Lorry request")
		return
	}
	publishNotifications(sent)
	c.JSON(http.StatusCreated, gin.H{"lorry_request": req})
}

// ListLorryRequests shows field managers their own requests and farm admins
// the whole organization's.
func ListLorryRequests(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q := config.DB.Where("organization_id = ?", orgID).
		Preload("Manager").Preload("AssignedLorry").
		Order("required_date asc, id asc")
	if currentRole(c) == models.RoleFieldManager {
		q = q.Where("manager_id = ?", currentUserID(c))
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var list []models.LorryRequest
	if err := q.Find(&list).Error; err != nil {
		dbError(c, err, "Lorry request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// ApproveLorryRequest assigns an available lorry to the requesting manager.
func ApproveLorryRequest(c *gin.Context) {
	req, ok := lorryRequestFromPath(c)
	if !ok {
		return
	}
	var input struct {
		LorryID uint `json:"lorry_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lorry models.Lorry
	if err := config.DB.Where("id = ? AND organization_id = ?", input.LorryID, req.OrganizationID).First(&lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}

	reviewer := currentUserID(c)
	now := time.Now()
	var sent []models.Notification
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Lorry{}).
			Where("id = ? AND status = ?", lorry.ID, models.LorryAvailable).
			Updates(map[string]interface{}{"status": models.LorryAssigned, "assigned_manager_id": req.ManagerID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLorryUnavailable
		}

		res = tx.Model(&models.LorryRequest{}).
			Where("id = ? AND status = ?", req.ID, models.RequestPending).
			Updates(map[string]interface{}{
				"status":            models.RequestApproved,
				"assigned_lorry_id": lorry.ID,
				"reviewed_by_id":    reviewer,
				"reviewed_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPending
		}

		var err error
		sent, err = queueNotifications(tx, []uint{req.ManagerID}, "LORRY_REQUEST_APPROVED", "Lorry request approved",
			fmt.Sprintf("Lorry %s has been assigned to you", lorry.PlateNumber))
		return err
	})
	if err != nil {
		respondDecisionError(c, err)
		return
	}
	publishNotifications(sent)

	var updated models.LorryRequest
	if err := config.DB.Preload("AssignedLorry").First(&updated, req.ID).Error; err != nil {
		dbError(c, err, "Lorry request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry_request": updated})
}

func RejectLorryRequest(c *gin.Context) {
	req, ok := lorryRequestFromPath(c)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewer := currentUserID(c)
	var sent []models.Notification
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LorryRequest{}).
			Where("id = ? AND status = ?", req.ID, models.RequestPending).
			Updates(map[string]interface{}{
				"status":           models.RequestRejected,
				"rejection_reason": input.Reason,
				"reviewed_by_id":   reviewer,
				"reviewed_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPending
		}
		var err error
		sent, err = queueNotifications(tx, []uint{req.ManagerID}, "LORRY_REQUEST_REJECTED", "Lorry request rejected", input.Reason)
		return err
	})
	if err != nil {
		respondDecisionError(c, err)
		return
	}
	publishNotifications(sent)

	var updated models.LorryRequest
	if err := config.DB.First(&updated, req.ID).Error; err != nil {
		dbError(c, err, "Lorry request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry_request": updated})
}

// CancelLorryRequest withdraws a field manager's own pending request.
func CancelLorryRequest(c *gin.Context) {
	req, ok := lorryRequestFromPath(c)
	if !ok {
		return
	}
	if req.ManagerID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lorry request not found"})
		return
	}
	res := config.DB.Model(&models.LorryRequest{}).
		Where("id = ? AND status = ?", req.ID, models.RequestPending).
		Update("status", models.RequestCancelled)
	if res.Error != nil {
		dbError(c, res.Error, "Lorry request")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": errNotPending.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lorry request cancelled"})
}

func respondDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotPending), errors.Is(err, errLorryUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("lorry request decision failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update lorry request"})
	}
}

func lorryRequestFromPath(c *gin.Context) (*models.LorryRequest, bool) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var req models.LorryRequest
	if err := config.DB.Where("id = ? AND organization_id = ?", id, orgID).First(&req).Error; err != nil {
		dbError(c, err, "Lorry request")
		return nil, false
	}
	return &req, true
}

func parseFlexibleDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
