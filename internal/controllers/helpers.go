package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/middleware"
	"farmtally/internal/models"
)

const dateLayout = "2006-01-02"

func currentUserID(c *gin.Context) uint {
	return c.MustGet(middleware.CtxUserID).(uint)
}

func currentRole(c *gin.Context) models.Role {
	return c.MustGet(middleware.CtxRole).(models.Role)
}

// currentOrgID returns the caller's organization or writes 403 and false.
func currentOrgID(c *gin.Context) (uint, bool) {
	if v, ok := c.Get(middleware.CtxOrganizationID); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "No organization associated with this account"})
	return 0, false
}

// parseID reads a numeric path parameter or writes 400 and false.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, bool, error) {
	v := c.Query(name)
	if v == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return uint(id), true, nil
}

// parseDateRange reads optional from/to query dates; to is inclusive.
func parseDateRange(c *gin.Context) (from, to *time.Time, err error) {
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, perr
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// dbError maps a gorm error to a response: 404 for missing rows, 409 for
// unique violations, 500 otherwise.
func dbError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case isUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	default:
		logrus.WithError(err).WithField("entity", what).Error("database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// loadFarmerForCaller fetches a farmer owned by the caller's organization.
func loadFarmerForCaller(c *gin.Context, orgID uint, id uint) (*models.Farmer, bool) {
	var farmer models.Farmer
	if err := config.DB.Where("id = ? AND organization_id = ?", id, orgID).First(&farmer).Error; err != nil {
		dbError(c, err, "Farmer")
		return nil, false
	}
	return &farmer, true
}

// currentFarmer resolves the farmer record linked to a FARMER login.
func currentFarmer(c *gin.Context) (*models.Farmer, bool) {
	var farmer models.Farmer
	if err := config.DB.Where("user_id = ?", currentUserID(c)).First(&farmer).Error; err != nil {
		dbError(c, err, "Farmer profile")
		return nil, false
	}
	return &farmer, true
}
