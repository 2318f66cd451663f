package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

type createFieldManagerInput struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// CreateFieldManager adds a field manager login to the farm admin's organization.
func CreateFieldManager(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input createFieldManagerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := createOrgUser(c, orgID, models.RoleFieldManager, input.Name, input.Email, input.Password, input.Phone)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"field_manager": user})
}

func ListFieldManagers(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var managers []models.User
	q := config.DB.Where("organization_id = ? AND role = ?", orgID, models.RoleFieldManager).Order("name asc")
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&managers).Error; err != nil {
		dbError(c, err, "Field manager")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": managers})
}

func GetFieldManager(c *gin.Context) {
	manager, ok := loadFieldManager(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"field_manager": manager})
}

func UpdateFieldManager(c *gin.Context) {
	manager, ok := loadFieldManager(c)
	if !ok {
		return
	}
	var input struct {
		Name     *string `json:"name" binding:"omitempty,min=2"`
		Phone    *string `json:"phone"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		err := config.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(manager).Updates(updates).Error; err != nil {
				return err
			}
			if input.IsActive != nil && !*input.IsActive {
				return releaseManagerLorries(tx, manager.ID)
			}
			return nil
		})
		if err != nil {
			dbError(c, err, "Field manager")
			return
		}
		if input.IsActive != nil {
			if *input.IsActive && !restoreSessions(c, manager.ID) {
				return
			}
			if !*input.IsActive && !revokeSessions(c, manager.ID) {
				return
			}
		}
		if err := config.DB.First(manager, manager.ID).Error; err != nil {
			dbError(c, err, "Field manager")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"field_manager": manager})
}

// DeactivateFieldManager disables the login and releases lorries assigned to it.
func DeactivateFieldManager(c *gin.Context) {
	manager, ok := loadFieldManager(c)
	if !ok {
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(manager).Update("is_active", false).Error; err != nil {
			return err
		}
		return releaseManagerLorries(tx, manager.ID)
	})
	if err != nil {
		dbError(c, err, "Field manager")
		return
	}
	if !revokeSessions(c, manager.ID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Field manager deactivated"})
}

// releaseManagerLorries returns lorries that are assigned but not yet
// loading to the pool.
func releaseManagerLorries(tx *gorm.DB, managerID uint) error {
	return tx.Model(&models.Lorry{}).
		Where("assigned_manager_id = ? AND status = ?", managerID, models.LorryAssigned).
		Updates(map[string]interface{}{"assigned_manager_id": nil, "status": models.LorryAvailable}).Error
}

// ListUsers lists users across tenants (application admin), optionally by role.
func ListUsers(c *gin.Context) {
	q := config.DB.Order("id asc")
	if role := models.Role(c.Query("role")); role != "" {
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		q = q.Where("role = ?", role)
	}
	if orgID, ok, err := queryUint(c, "organization_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization_id"})
		return
	} else if ok {
		q = q.Where("organization_id = ?", orgID)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func loadFieldManager(c *gin.Context) (*models.User, bool) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var manager models.User
	if err := config.DB.Where("id = ? AND organization_id = ? AND role = ?", id, orgID, models.RoleFieldManager).
		First(&manager).Error; err != nil {
		dbError(c, err, "Field manager")
		return nil, false
	}
	return &manager, true
}

// createOrgUser creates a login inside orgID; it writes the error response itself.
func createOrgUser(c *gin.Context, orgID uint, role models.Role, name, email, password, phone string) (*models.User, bool) {
	email = normalizeEmail(email)
	var existing int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		dbError(c, err, "User")
		return nil, false
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return nil, false
	}
	hashed, err := HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return nil, false
	}
	user := models.User{
		Name:           name,
		Email:          email,
		Password:       hashed,
		Phone:          phone,
		Role:           role,
		OrganizationID: &orgID,
		IsActive:       true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		dbError(c, err, "User")
		return nil, false
	}
	return &user, true
}
