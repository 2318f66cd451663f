package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

type lorryInput struct {
	PlateNumber *string  `json:"plate_number" binding:"omitempty,min=3"`
	CapacityKg  *float64 `json:"capacity_kg" binding:"omitempty,gt=0"`
	DriverName  *string  `json:"driver_name"`
	DriverPhone *string  `json:"driver_phone"`
}

func (in lorryInput) apply(l *models.Lorry) {
	if in.PlateNumber != nil {
		l.PlateNumber = strings.ToUpper(strings.ReplaceAll(*in.PlateNumber, " ", ""))
	}
	if in.CapacityKg != nil {
		l.CapacityKg = *in.CapacityKg
	}
	if in.DriverName != nil {
		l.DriverName = *in.DriverName
	}
	if in.DriverPhone != nil {
		l.DriverPhone = *in.DriverPhone
	}
}

// CreateLorry adds a truck to the organization's fleet as AVAILABLE.
func CreateLorry(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input lorryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lorry input: " + err.Error()})
		return
	}
	if input.PlateNumber == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plate_number is required"})
		return
	}

	lorry := models.Lorry{OrganizationID: orgID, Status: models.LorryAvailable}
	input.apply(&lorry)
	if err := config.DB.Create(&lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lorry": lorry})
}

func ListLorries(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q := config.DB.Where("organization_id = ?", orgID).Preload("AssignedManager").Order("plate_number asc")
	if s := models.LorryStatus(c.Query("status")); s != "" {
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		q = q.Where("status = ?", s)
	}
	var lorries []models.Lorry
	if err := q.Find(&lorries).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lorries})
}

// ListAssignedLorries returns the lorries currently assigned to the calling field manager.
func ListAssignedLorries(c *gin.Context) {
	var lorries []models.Lorry
	if err := config.DB.Where("assigned_manager_id = ?", currentUserID(c)).Order("plate_number asc").Find(&lorries).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lorries})
}

func GetLorry(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry": lorry})
}

func UpdateLorry(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	var input lorryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update: " + err.Error()})
		return
	}
	input.apply(lorry)
	if err := config.DB.Omit("AssignedManager").Save(lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry": lorry})
}

func DeleteLorry(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	if lorry.Status != models.LorryAvailable {
		c.JSON(http.StatusConflict, gin.H{"error": "lorry is in use (" + string(lorry.Status) + ")"})
		return
	}
	if err := config.DB.Delete(lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lorry deleted"})
}

// UpdateLorryStatus moves a lorry along its lifecycle. Field managers may
// only move lorries assigned to them.
func UpdateLorryStatus(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	var input struct {
		Status models.LorryStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if currentRole(c) == models.RoleFieldManager {
		if lorry.AssignedManagerID == nil || *lorry.AssignedManagerID != currentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "lorry is not assigned to you"})
			return
		}
		if input.Status == models.LorryAssigned || input.Status == models.LorryMaintenance {
			c.JSON(http.StatusForbidden, gin.H{"error": "only farm admins can assign or service lorries"})
			return
		}
	}
	if input.Status == models.LorryAssigned {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lorries are assigned by approving a lorry request"})
		return
	}
	if !lorry.Status.CanTransition(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid status transition from " + string(lorry.Status) + " to " + string(input.Status),
		})
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == models.LorryAvailable {
		updates["assigned_manager_id"] = nil
	}
	if err := config.DB.Model(lorry).Updates(updates).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	var updated models.Lorry
	if err := config.DB.First(&updated, lorry.ID).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry": updated})
}

func lorryFromPath(c *gin.Context) (*models.Lorry, bool) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var lorry models.Lorry
	if err := config.DB.Where("id = ? AND organization_id = ?", id, orgID).First(&lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return nil, false
	}
	return &lorry, true
}
