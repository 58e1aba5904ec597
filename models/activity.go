package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity types.
const (
	ActivityCostAdded     = "cost_added"
	ActivityCostStatus    = "cost_status"
	ActivityCostDeleted   = "cost_deleted"
	ActivityBazarAdded    = "bazar_added"
	ActivityBazarStatus   = "bazar_status"
	ActivityBazarUpdated  = "bazar_updated"
	ActivityBazarDeleted  = "bazar_deleted"
	ActivityPayment       = "payment_recorded"
	ActivityMemberJoined  = "member_joined"
	ActivityMemberActive  = "member_approved"
	ActivityMemberLeft    = "member_left"
	ActivityRoleChanged   = "role_changed"
	ActivityMonthLocked   = "month_locked"
	ActivityMonthUnlocked = "month_unlocked"
)

// Activity is the audit feed: every financially relevant mutation leaves a
// row here, including pending/rejected entries that never touch a total.
type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessID      uuid.UUID `gorm:"type:uuid;index" json:"mess_id"`
	UserID      uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Type        string    `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
