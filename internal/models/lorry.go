package models

import "gorm.io/gorm"

type LorryStatus string

const (
	LorryAvailable    LorryStatus = "AVAILABLE"
	LorryAssigned     LorryStatus = "ASSIGNED"
	LorryLoading      LorryStatus = "LOADING"
	LorryInTransit    LorryStatus = "IN_TRANSIT"
	LorrySubmitted    LorryStatus = "SUBMITTED"
	LorrySentToDealer LorryStatus = "SENT_TO_DEALER"
	LorryMaintenance  LorryStatus = "MAINTENANCE"
)

var lorryTransitions = map[LorryStatus][]LorryStatus{
	LorryAvailable:    {LorryAssigned, LorryMaintenance},
	LorryAssigned:     {LorryLoading, LorryAvailable},
	LorryLoading:      {LorryInTransit},
	LorryInTransit:    {LorrySubmitted},
	LorrySubmitted:    {LorrySentToDealer},
	LorrySentToDealer: {LorryAvailable},
	LorryMaintenance:  {LorryAvailable},
}

// Valid reports whether s is a known lorry status.
func (s LorryStatus) Valid() bool {
	_, ok := lorryTransitions[s]
	return ok
}

// CanTransition reports whether a lorry may move from s to next.
func (s LorryStatus) CanTransition(next LorryStatus) bool {
	for _, allowed := range lorryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Lorry struct {
	gorm.Model
	OrganizationID    uint        `json:"organization_id" gorm:"index;not null"`
	PlateNumber       string      `json:"plate_number" gorm:"uniqueIndex:idx_lorries_plate_live,where:deleted_at IS NULL;not null"`
	CapacityKg        float64     `json:"capacity_kg"`
	DriverName        string      `json:"driver_name"`
	DriverPhone       string      `json:"driver_phone"`
	Status            LorryStatus `json:"status" gorm:"index;default:AVAILABLE"`
	AssignedManagerID *uint       `json:"assigned_manager_id" gorm:"index"`

	AssignedManager *User `gorm:"foreignKey:AssignedManagerID" json:"assigned_manager,omitempty"`
}
