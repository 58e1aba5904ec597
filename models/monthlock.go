package models

import (
	"time"

	"github.com/google/uuid"
)

// MonthLock freezes a settled month: while present, every ledger write for
// the (mess, month) pair is rejected.
type MonthLock struct {
	MessID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"mess_id"`
	Month    string    `gorm:"size:7;primaryKey" json:"month"`
	LockedBy uuid.UUID `gorm:"type:uuid" json:"locked_by"`
	LockedAt time.Time `gorm:"autoCreateTime" json:"locked_at"`
}
