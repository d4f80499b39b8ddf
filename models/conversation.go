package models

import (
	"time"

	"gorm.io/gorm"
)

type Conversation struct {
	gorm.Model
	UserID      uint      `gorm:"not null;index"`
	Title       string    `gorm:"size:200"`
	LastUpdated time.Time `gorm:"index"`
	Messages    []Message `gorm:"constraint:OnDelete:CASCADE"`
}
