package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Member roles. A member may hold several at once (e.g. admin + manager).
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Membership states. Only active members participate in any split.
const (
	MemberStatusPending = "pending"
	MemberStatusActive  = "active"
)

type Mess struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Mess) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type MessMember struct {
	MessID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"mess_id"`
	UserID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	User     User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Roles    pq.StringArray `gorm:"type:text[]" json:"roles"`
	Status   string         `gorm:"default:pending;size:20" json:"status"`
	JoinedAt time.Time      `gorm:"autoCreateTime" json:"joined_at"`
}

func (mm *MessMember) HasRole(role string) bool {
	for _, r := range mm.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (mm *MessMember) IsManager() bool {
	return mm.HasRole(RoleManager) || mm.HasRole(RoleAdmin)
}

// Member is the roster view consumed by the settlement engine and the
// presentation layer: a membership row joined with the user's name.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Roles    []string  `json:"roles"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// Request structs
type CreateMessRequest struct {
	Name string `json:"name" binding:"required"`
}

type JoinMessRequest struct {
	MessID string `json:"mess_id" binding:"required"`
}

type ApproveMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type RoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=admin manager member"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Response structs
type MessResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}
