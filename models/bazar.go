package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BazarEntry is a grocery purchase feeding the meal account. A manager's
// entry is approved on creation; a regular member's entry starts pending
// and needs manager approval before it counts.
type BazarEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessID    uuid.UUID `gorm:"type:uuid;index" json:"mess_id"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	Month     string    `gorm:"not null;size:7;index" json:"month"`
	BuyerID   uuid.UUID `gorm:"type:uuid" json:"buyer_id"`
	Amount    int64     `gorm:"not null" json:"amount"` // minor units
	Items     string    `json:"items,omitempty"`
	Status    string    `gorm:"default:pending;size:20" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // optimistic-concurrency token
}

func (b *BazarEntry) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateBazarRequest struct {
	Date   string `json:"date" binding:"required"` // YYYY-MM-DD
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Items  string `json:"items"`
}

type UpdateBazarRequest struct {
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	Items     string `json:"items"`
	UpdatedAt string `json:"updated_at" binding:"required"` // token from the last read, RFC3339
}
