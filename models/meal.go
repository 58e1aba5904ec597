package models

import (
	"time"

	"github.com/google/uuid"
)

// MealLog is one member's meal count for one day, upserted on re-log.
type MealLog struct {
	MessID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"mess_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Date      time.Time `gorm:"type:date;primaryKey" json:"date"`
	Month     string    `gorm:"not null;size:7;index" json:"month"`
	MealCount int       `gorm:"not null;default:0" json:"meal_count"`
}

type LogMealRequest struct {
	UserID    string `json:"user_id"` // optional: managers may log for others
	Date      string `json:"date" binding:"required"`
	MealCount *int   `json:"meal_count" binding:"required"` // pointer so 0 binds
}
