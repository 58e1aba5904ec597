package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval workflow states for ledger entries. Approved and rejected are
// terminal; only approved entries count toward any total.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ServiceCost is a fixed house expense (rent, electricity, wifi) for one
// month, split equally among active members once approved.
type ServiceCost struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessID    uuid.UUID `gorm:"type:uuid;index" json:"mess_id"`
	Month     string    `gorm:"not null;size:7;index" json:"month"` // YYYY-MM
	Name      string    `gorm:"not null;size:100" json:"name"`
	Amount    int64     `gorm:"not null" json:"amount"` // minor units
	Status    string    `gorm:"default:pending;size:20" json:"status"`
	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (sc *ServiceCost) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateCostRequest struct {
	Month  string `json:"month" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"` // minor units
}

type SetCostStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}
