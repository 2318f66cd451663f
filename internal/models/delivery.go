package models

import (
	"time"

	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDING"
	DeliveryInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryProcessed  DeliveryStatus = "PROCESSED"
	DeliveryCompleted  DeliveryStatus = "COMPLETED"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:    {DeliveryInProgress},
	DeliveryInProgress: {DeliveryInProgress, DeliveryProcessed},
	DeliveryProcessed:  {DeliveryCompleted},
	DeliveryCompleted:  nil,
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	_, ok := deliveryTransitions[s]
	return ok
}

// CanTransition reports whether a delivery may move from s to next.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type QualityGrade string

const (
	GradeA        QualityGrade = "A"
	GradeB        QualityGrade = "B"
	GradeC        QualityGrade = "C"
	GradeRejected QualityGrade = "REJECTED"
)

// Delivery is one farmer's corn drop-off onto a lorry. Weights are in kg.
type Delivery struct {
	gorm.Model
	OrganizationID uint           `json:"organization_id" gorm:"index;not null"`
	FarmerID       uint           `json:"farmer_id" gorm:"index;not null"`
	LorryID        uint           `json:"lorry_id" gorm:"index;not null"`
	FieldManagerID uint           `json:"field_manager_id" gorm:"index"`
	DeliveryDate   time.Time      `json:"delivery_date" gorm:"index"`
	BagsCount      int            `json:"bags_count"`
	Status         DeliveryStatus `json:"status" gorm:"index;default:PENDING"`

	GrossWeight       float64      `json:"gross_weight"`
	MoisturePercent   float64      `json:"moisture_percent"`
	QualityGrade      QualityGrade `json:"quality_grade"`
	StandardDeduction float64      `json:"standard_deduction"`
	QualityDeduction  float64      `json:"quality_deduction"`
	NetWeight         float64      `json:"net_weight"`

	PricePerKg      float64    `json:"price_per_kg"`
	TotalValue      float64    `json:"total_value"`
	AdvanceDeducted float64    `json:"advance_deducted"`
	FinalAmount     float64    `json:"final_amount"`
	ProcessedAt     *time.Time `json:"processed_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	Notes           string     `json:"notes"`

	Farmer *Farmer `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`
	Lorry  *Lorry  `gorm:"foreignKey:LorryID" json:"lorry,omitempty"`
}
