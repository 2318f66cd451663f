package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name           string     `json:"name"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Password       string     `json:"-"`
	Phone          string     `json:"phone"`
	Role           Role       `json:"role" gorm:"index;not null"`
	OrganizationID *uint      `json:"organization_id" gorm:"index"` // nil only for application admins
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt    *time.Time `json:"last_login_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// OrgID returns the organization id or zero when the user has none.
func (u *User) OrgID() uint {
	if u.OrganizationID == nil {
		return 0
	}
	return *u.OrganizationID
}
