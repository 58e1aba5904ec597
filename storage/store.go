// Package storage defines the persistence contract for the ledger of record.
// Services depend on this interface only, so the Postgres implementation can
// be swapped for the in-memory one in tests.
package storage

import (
	"context"
	"errors"
	"time"

	"mess-backend/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown ids (mess, entry, user, member).
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a guarded update matched the row id but
	// not its expected state (status transition or updated_at token).
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is returned on unique-key violations (e.g. email).
	ErrDuplicate = errors.New("duplicate")
)

// StatusAny disables status filtering on ListServiceCosts.
const StatusAny = ""

// MonthRecords is one mess-month's full ledger state, read together so a
// summary is computed from a single consistent snapshot rather than five
// independent queries.
type MonthRecords struct {
	Roster   []models.Member
	Costs    []models.ServiceCost
	Bazar    []models.BazarEntry
	Meals    []models.MealLog
	Payments []models.Payment
}

type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// Messes and membership. ActiveMembers returns the splitting roster in
	// stable (joined_at, user_id) order.
	CreateMess(ctx context.Context, mess *models.Mess, creator *models.MessMember) error
	GetMess(ctx context.Context, id uuid.UUID) (*models.Mess, error)
	AddMember(ctx context.Context, member *models.MessMember) error
	GetMember(ctx context.Context, messID, userID uuid.UUID) (*models.MessMember, error)
	UpdateMemberStatus(ctx context.Context, messID, userID uuid.UUID, from, to string) error
	UpdateMemberRoles(ctx context.Context, messID, userID uuid.UUID, roles []string) error
	RemoveMember(ctx context.Context, messID, userID uuid.UUID) error
	ActiveMembers(ctx context.Context, messID uuid.UUID) ([]models.Member, error)
	Members(ctx context.Context, messID uuid.UUID, status string) ([]models.Member, error)

	// Service costs
	CreateServiceCost(ctx context.Context, cost *models.ServiceCost) error
	GetServiceCost(ctx context.Context, id uuid.UUID) (*models.ServiceCost, error)
	ListServiceCosts(ctx context.Context, messID uuid.UUID, month, status string) ([]models.ServiceCost, error)
	SetServiceCostStatus(ctx context.Context, id uuid.UUID, from, to string) error
	DeleteServiceCost(ctx context.Context, id uuid.UUID) error

	// Bazar entries
	CreateBazarEntry(ctx context.Context, entry *models.BazarEntry) error
	GetBazarEntry(ctx context.Context, id uuid.UUID) (*models.BazarEntry, error)
	ListBazarEntries(ctx context.Context, messID uuid.UUID, month string) ([]models.BazarEntry, error)
	UpdateBazarEntry(ctx context.Context, id uuid.UUID, expectedUpdatedAt time.Time, updates map[string]interface{}) error
	SetBazarStatus(ctx context.Context, id uuid.UUID, from, to string) error
	DeleteBazarEntry(ctx context.Context, id uuid.UUID) error

	// Meal logs (one row per member per day, upserted)
	UpsertMealLog(ctx context.Context, meal *models.MealLog) error
	ListMealLogs(ctx context.Context, messID uuid.UUID, month string) ([]models.MealLog, error)

	// Payments
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, messID uuid.UUID, month string) ([]models.Payment, error)

	// LoadMonth reads the roster and all four ledgers atomically.
	LoadMonth(ctx context.Context, messID uuid.UUID, month string) (*MonthRecords, error)

	// Month locks. GetMonthLock returns (nil, nil) when the month is open.
	GetMonthLock(ctx context.Context, messID uuid.UUID, month string) (*models.MonthLock, error)
	PutMonthLock(ctx context.Context, lock *models.MonthLock) error
	DeleteMonthLock(ctx context.Context, messID uuid.UUID, month string) error

	// Invitations
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	PendingInvitation(ctx context.Context, messID uuid.UUID, email string) (*models.Invitation, error)
	PendingInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status string) error

	// Activity feed
	CreateActivity(ctx context.Context, activity *models.Activity) error
	ListActivity(ctx context.Context, messID uuid.UUID, limit, offset int) ([]models.Activity, error)
}
