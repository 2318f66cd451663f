package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model
	UserID  uint       `json:"user_id" gorm:"index;not null"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	ReadAt  *time.Time `json:"read_at"`
}
