package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/geo"
	"farmtally/internal/models"
	"farmtally/internal/tracking"
)

const (
	defaultTrackLimit = 500
	maxTrackLimit     = 5000
)

// ReportLorryLocation stores a GPS fix sent by the field manager running the
// lorry and pushes it to the organization's farm admins. Fixes that add
// nothing over the previous one are acknowledged but not stored.
func ReportLorryLocation(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	if lorry.AssignedManagerID == nil || *lorry.AssignedManagerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "lorry is not assigned to you"})
		return
	}

	var fix tracking.Fix
	if err := c.ShouldBindJSON(&fix); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location data: " + err.Error()})
		return
	}
	if err := fix.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now().UTC()
	}

	var last *tracking.Last
	var prev models.LorryLocation
	err := config.DB.Where("lorry_id = ?", lorry.ID).Order("recorded_at desc, id desc").First(&prev).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		dbError(c, err, "Lorry location")
		return
	default:
		if fix.Timestamp.Before(prev.RecordedAt) {
			c.JSON(http.StatusConflict, gin.H{"error": "fix is older than the last recorded position"})
			return
		}
		last = &tracking.Last{
			Latitude:  prev.Latitude,
			Longitude: prev.Longitude,
			IsMoving:  prev.IsMoving,
			Timestamp: prev.RecordedAt,
		}
	}

	d := tracking.Classify(last, fix)
	if !d.Save {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "event_type": d.Event, "distance": d.Distance})
		return
	}

	point, err := geo.FromLatLng(fix.Latitude, fix.Longitude)
	if err != nil {
		logrus.WithError(err).WithField("lorry_id", lorry.ID).Error("could not encode lorry position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not encode position"})
		return
	}
	rec := models.LorryLocation{
		LorryID:          lorry.ID,
		ReportedByID:     currentUserID(c),
		Latitude:         fix.Latitude,
		Longitude:        fix.Longitude,
		Accuracy:         fix.Accuracy,
		Speed:            fix.Speed,
		Bearing:          d.Bearing,
		Altitude:         fix.Altitude,
		IsMoving:         d.IsMoving,
		DistanceFromLast: d.Distance,
		EventType:        string(d.Event),
		RecordedAt:       fix.Timestamp,
		Point:            point,
	}
	if err := config.DB.Create(&rec).Error; err != nil {
		dbError(c, err, "Lorry location")
		return
	}

	admins, err := farmAdminIDs(config.DB, lorry.OrganizationID)
	if err != nil {
		logrus.WithError(err).WithField("lorry_id", lorry.ID).Warn("could not resolve farm admins for location push")
	}
	msg := gin.H{"type": "LORRY_LOCATION", "lorry_id": lorry.ID, "plate_number": lorry.PlateNumber, "location": rec}
	for _, id := range admins {
		Hub.Publish(id, msg)
	}

	logrus.WithFields(logrus.Fields{
		"lorry_id":   lorry.ID,
		"event_type": d.Event,
		"distance_m": d.Distance,
	}).Debug("lorry location saved")
	c.JSON(http.StatusCreated, gin.H{"status": "saved", "location": rec})
}

// LorryTrack returns the stored positions of a lorry in time order. Field
// managers only see lorries assigned to them.
func LorryTrack(c *gin.Context) {
	lorry, ok := lorryFromPath(c)
	if !ok {
		return
	}
	if currentRole(c) == models.RoleFieldManager &&
		(lorry.AssignedManagerID == nil || *lorry.AssignedManagerID != currentUserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "lorry is not assigned to you"})
		return
	}

	limit := defaultTrackLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTrackLimit)
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
		return
	}

	q := config.DB.Where("lorry_id = ?", lorry.ID)
	if from != nil {
		q = q.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("recorded_at <= ?", *to)
	}
	var points []models.LorryLocation
	if err := q.Order("recorded_at asc, id asc").Limit(limit).Find(&points).Error; err != nil {
		dbError(c, err, "Lorry location")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorry_id": lorry.ID, "data": points})
}

// LatestLorryLocations returns the last stored position of every lorry in
// the caller's organization that has reported one.
func LatestLorryLocations(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	latest := config.DB.Model(&models.LorryLocation{}).
		Select("MAX(lorry_locations.id)").
		Joins("JOIN lorries ON lorries.id = lorry_locations.lorry_id").
		Where("lorries.organization_id = ?", orgID).
		Group("lorry_locations.lorry_id")

	var points []models.LorryLocation
	if err := config.DB.Where("id IN (?)", latest).Order("lorry_id asc").Find(&points).Error; err != nil {
		dbError(c, err, "Lorry location")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points})
}
