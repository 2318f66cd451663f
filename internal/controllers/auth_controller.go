package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
	"farmtally/internal/tokens"
)

type registerInput struct {
	Name                string `json:"name" binding:"required,min=2"`
	Email               string `json:"email" binding:"required,email"`
	Password            string `json:"password" binding:"required,min=8"`
	Phone               string `json:"phone"`
	OrganizationName    string `json:"organization_name" binding:"required"`
	OrganizationAddress string `json:"organization_address"`
}

// Register creates a farm admin together with their organization.
func Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Email = normalizeEmail(input.Email)

	var existing int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&existing).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return
	}

	hashedPassword, err := HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	var user models.User
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		org := models.Organization{
			Name:     input.OrganizationName,
			Code:     newOrganizationCode(),
			Email:    input.Email,
			Phone:    input.Phone,
			Address:  input.OrganizationAddress,
			IsActive: true,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		user = models.User{
			Name:           input.Name,
			Email:          input.Email,
			Password:       hashedPassword,
			Phone:          input.Phone,
			Role:           models.RoleFarmAdmin,
			OrganizationID: &org.ID,
			IsActive:       true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		user.Organization = &org
		return tx.Model(&org).Update("owner_id", user.ID).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		logrus.WithError(err).Error("Register: could not create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	respondWithTokens(c, http.StatusCreated, &user)
}

func Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", normalizeEmail(body.Email)).Preload("Organization").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		} else {
			dbError(c, err, "User")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Login: could not record last login")
	}
	user.LastLoginAt = &now

	respondWithTokens(c, http.StatusOK, &user)
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is consumed.
func Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := config.Tokens.ConsumeRefresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrUnknownRefreshToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}
		logrus.WithError(err).Error("Refresh: token store failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh token"})
		return
	}

	var user models.User
	if err := config.DB.Preload("Organization").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}
		dbError(c, err, "User")
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is deactivated"})
		return
	}

	respondWithTokens(c, http.StatusOK, &user)
}

// Logout revokes the presented access token and, if given, the refresh token.
func Logout(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&body)

	claims := middleware.CurrentClaims(c)
	ctx := c.Request.Context()
	if claims != nil && claims.ExpiresAt != nil {
		if err := config.Tokens.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			logrus.WithError(err).Error("Logout: could not blacklist token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
			return
		}
	}
	if body.RefreshToken != "" {
		if err := config.Tokens.RevokeRefresh(ctx, body.RefreshToken); err != nil {
			logrus.WithError(err).Warn("Logout: could not revoke refresh token")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func GetProfile(c *gin.Context) {
	var user models.User
	if err := config.DB.Preload("Organization").First(&user, currentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
			return
		}
		dbError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func UpdateProfile(c *gin.Context) {
	var input struct {
		Name  *string `json:"name" binding:"omitempty,min=2"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, currentUserID(c)).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if err := config.DB.Save(&user).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, currentUserID(c)).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		return
	}
	hashed, err := HashPassword(input.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}
	if err := config.DB.Model(&user).Update("password", hashed).Error; err != nil {
		dbError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func respondWithTokens(c *gin.Context, status int, user *models.User) {
	access, _, err := middleware.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	refresh, err := config.Tokens.IssueRefresh(c.Request.Context(), user.ID, config.App.RefreshTTL)
	if err != nil {
		logrus.WithError(err).Error("could not issue refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(status, gin.H{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    int(config.App.AccessTTL.Seconds()),
	})
}

// BcryptCost is the work factor for new password hashes.
var BcryptCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newOrganizationCode() string {
	return "ORG-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// revokeSessions cuts off access tokens already issued to userIDs. It writes
// 500 and returns false when the token store cannot be updated.
func revokeSessions(c *gin.Context, userIDs ...uint) bool {
	if config.Tokens == nil || len(userIDs) == 0 {
		return true
	}
	if err := config.Tokens.DisableUser(c.Request.Context(), config.App.AccessTTL, userIDs...); err != nil {
		logrus.WithError(err).WithField("user_ids", userIDs).Error("could not revoke sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not revoke active sessions"})
		return false
	}
	return true
}

func restoreSessions(c *gin.Context, userID uint) bool {
	if config.Tokens == nil {
		return true
	}
	if err := config.Tokens.EnableUser(c.Request.Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("could not restore sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not restore sessions"})
		return false
	}
	return true
}
