package models

import "gorm.io/gorm"

type Farmer struct {
	gorm.Model
	OrganizationID uint    `json:"organization_id" gorm:"index;not null"`
	UserID         *uint   `json:"user_id" gorm:"index"`
	Name           string  `json:"name" gorm:"not null"`
	Phone          string  `json:"phone" gorm:"index"`
	IDNumber       string  `json:"id_number"`
	Village        string  `json:"village"`
	District       string  `json:"district"`
	BankAccount    string  `json:"bank_account"`
	BankIFSC       string  `json:"bank_ifsc"`
	AreaAcres      float64 `json:"area_acres"`
	CreatedByID    uint    `json:"created_by_id"`

	// Farm location as WKB; the API exchanges GeoJSON.
	Location []byte `gorm:"type:bytea" json:"-"`
}
