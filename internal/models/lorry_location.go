package models

import (
	"time"

	"gorm.io/gorm"
)

// LorryLocation is one stored GPS fix of a lorry. Fixes that add nothing
// over the previous one are never stored.
type LorryLocation struct {
	gorm.Model
	LorryID          uint      `json:"lorry_id" gorm:"index;not null"`
	ReportedByID     uint      `json:"reported_by_id" gorm:"index"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Accuracy         float64   `json:"accuracy"` // meters
	Speed            float64   `json:"speed"`    // m/s
	Bearing          float64   `json:"bearing"`  // degrees from north
	Altitude         float64   `json:"altitude"`
	IsMoving         bool      `json:"is_moving"`
	DistanceFromLast float64   `json:"distance_from_last"`
	EventType        string    `json:"event_type"`
	RecordedAt       time.Time `json:"recorded_at" gorm:"index"`
	Point            []byte    `json:"-"` // WKB, SRID 4326
}
