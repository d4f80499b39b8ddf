package models

import (
	"time"

	"gorm.io/gorm"
)

type Message struct {
	gorm.Model
	ConversationID uint      `gorm:"index;not null"`
	IsUser         bool      `gorm:"not null"`
	Text           string    `gorm:"type:text"`
	HTMLContent    string    `gorm:"type:text"` // markdown rendered by the client, stored verbatim
	ImageData      string    `gorm:"type:text"` // data-URI string: "<metadata>,<base64>"
	Timestamp      time.Time `gorm:"index"`
}
