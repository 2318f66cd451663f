package models

import "gorm.io/gorm"

// Organization is a tenant: one farm admin's procurement business.
type Organization struct {
	gorm.Model
	Name     string `json:"name" gorm:"not null"`
	Code     string `json:"code" gorm:"uniqueIndex"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	OwnerID  uint   `json:"owner_id" gorm:"index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Settlement defaults applied when a delivery does not override them.
	StandardDeductionPerBag float64 `json:"standard_deduction_per_bag" gorm:"default:2"`
	DefaultPricePerKg       float64 `json:"default_price_per_kg"`
}
