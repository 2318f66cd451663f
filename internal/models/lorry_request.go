package models

import (
	"time"

	"gorm.io/gorm"
)

type LorryRequestStatus string

const (
	RequestPending   LorryRequestStatus = "PENDING"
	RequestApproved  LorryRequestStatus = "APPROVED"
	RequestRejected  LorryRequestStatus = "REJECTED"
	RequestCancelled LorryRequestStatus = "CANCELLED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// LorryRequest is a field manager asking the farm admin for a truck.
type LorryRequest struct {
	gorm.Model
	OrganizationID   uint               `json:"organization_id" gorm:"index;not null"`
	ManagerID        uint               `json:"manager_id" gorm:"index;not null"`
	RequiredDate     time.Time          `json:"required_date"`
	Priority         Priority           `json:"priority" gorm:"default:MEDIUM"`
	Location         string             `json:"location"`
	ExpectedVolumeKg float64            `json:"expected_volume_kg"`
	Purpose          string             `json:"purpose"`
	Status           LorryRequestStatus `json:"status" gorm:"index;default:PENDING"`
	AssignedLorryID  *uint              `json:"assigned_lorry_id"`
	ReviewedByID     *uint              `json:"reviewed_by_id"`
	ReviewedAt       *time.Time         `json:"reviewed_at"`
	RejectionReason  string             `json:"rejection_reason,omitempty"`

	Manager       *User  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	AssignedLorry *Lorry `gorm:"foreignKey:AssignedLorryID" json:"assigned_lorry,omitempty"`
}
