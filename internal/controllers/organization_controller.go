package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

type organizationInput struct {
	Name                    *string  `json:"name" binding:"omitempty,min=2"`
	Email                   *string  `json:"email" binding:"omitempty,email"`
	Phone                   *string  `json:"phone"`
	Address                 *string  `json:"address"`
	StandardDeductionPerBag *float64 `json:"standard_deduction_per_bag" binding:"omitempty,gte=0"`
	DefaultPricePerKg       *float64 `json:"default_price_per_kg" binding:"omitempty,gte=0"`
}

func (in organizationInput) apply(org *models.Organization) {
	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.Email != nil {
		org.Email = *in.Email
	}
	if in.Phone != nil {
		org.Phone = *in.Phone
	}
	if in.Address != nil {
		org.Address = *in.Address
	}
	if in.StandardDeductionPerBag != nil {
		org.StandardDeductionPerBag = *in.StandardDeductionPerBag
	}
	if in.DefaultPricePerKg != nil {
		org.DefaultPricePerKg = *in.DefaultPricePerKg
	}
}

// ListOrganizations lists every tenant (application admin).
func ListOrganizations(c *gin.Context) {
	var orgs []models.Organization
	q := config.DB.Order("id asc")
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&orgs).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orgs})
}

func CreateOrganization(c *gin.Context) {
	var input organizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	org := models.Organization{Code: newOrganizationCode(), IsActive: true, StandardDeductionPerBag: 2}
	input.apply(&org)
	if err := config.DB.Create(&org).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"organization": org})
}

func GetOrganization(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var org models.Organization
	if err := config.DB.First(&org, id).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func UpdateOrganization(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	updateOrganization(c, id)
}

// DeactivateOrganization switches a tenant off; its users can no longer log in.
func DeactivateOrganization(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var org models.Organization
	if err := config.DB.First(&org, id).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	var userIDs []uint
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("organization_id = ?", id).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&org).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("organization_id = ?", id).Update("is_active", false).Error
	})
	if err != nil {
		dbError(c, err, "Organization")
		return
	}
	if !revokeSessions(c, userIDs...) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization deactivated"})
}

func GetMyOrganization(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var org models.Organization
	if err := config.DB.First(&org, orgID).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func UpdateMyOrganization(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	updateOrganization(c, orgID)
}

func updateOrganization(c *gin.Context, id uint) {
	var org models.Organization
	if err := config.DB.First(&org, id).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	var input organizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.apply(&org)
	if err := config.DB.Save(&org).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}
