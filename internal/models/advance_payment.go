package models

import (
	"time"

	"gorm.io/gorm"
)

type AdvanceStatus string

const (
	AdvanceOutstanding      AdvanceStatus = "OUTSTANDING"
	AdvancePartiallySettled AdvanceStatus = "PARTIALLY_SETTLED"
	AdvanceSettled          AdvanceStatus = "SETTLED"
)

// Valid reports whether s is a known advance status.
func (s AdvanceStatus) Valid() bool {
	switch s {
	case AdvanceOutstanding, AdvancePartiallySettled, AdvanceSettled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodUPI          PaymentMethod = "UPI"
	MethodCheque       PaymentMethod = "CHEQUE"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodUPI, MethodCheque:
		return true
	}
	return false
}

// AdvancePayment is money handed to a farmer ahead of delivery settlement.
type AdvancePayment struct {
	gorm.Model
	OrganizationID uint          `json:"organization_id" gorm:"index;not null"`
	FarmerID       uint          `json:"farmer_id" gorm:"index;not null"`
	Amount         float64       `json:"amount"`
	SettledAmount  float64       `json:"settled_amount"`
	PaymentDate    time.Time     `json:"payment_date"`
	Method         PaymentMethod `json:"method"`
	Reference      string        `json:"reference"`
	Reason         string        `json:"reason"`
	Status         AdvanceStatus `json:"status" gorm:"index;default:OUTSTANDING"`
	RecordedByID   uint          `json:"recorded_by_id"`

	Farmer *Farmer `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`
}

// Outstanding is the part of the advance not yet offset against deliveries.
func (a *AdvancePayment) Outstanding() float64 {
	return a.Amount - a.SettledAmount
}

// AdvanceSettlement records how much of an advance a delivery consumed.
type AdvanceSettlement struct {
	gorm.Model
	DeliveryID       uint    `json:"delivery_id" gorm:"index;not null"`
	AdvancePaymentID uint    `json:"advance_payment_id" gorm:"index;not null"`
	Amount           float64 `json:"amount"`
}
