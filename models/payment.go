package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment accounts. House payments offset the equal split of service costs,
// meal payments offset consumption-based meal cost.
const (
	AccountHouse = "house"
	AccountMeal  = "meal"
)

type Payment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessID     uuid.UUID `gorm:"type:uuid;index" json:"mess_id"`
	UserID     uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Month      string    `gorm:"not null;size:7;index" json:"month"`
	Amount     int64     `gorm:"not null" json:"amount"` // minor units
	Account    string    `gorm:"not null;size:10" json:"account"`
	RecordedBy uuid.UUID `gorm:"type:uuid" json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type RecordPaymentRequest struct {
	UserID  string `json:"user_id"` // optional: managers may record for others
	Month   string `json:"month" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	Account string `json:"account" binding:"required,oneof=house meal"`
}
