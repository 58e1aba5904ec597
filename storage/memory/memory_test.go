package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/storage"
)

func seedMess(t *testing.T, m *Memory) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Email: "a@example.com", Name: "A", PasswordHash: "x"}
	if err := m.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	mess := &models.Mess{Name: "test", CreatedBy: user.ID}
	creator := &models.MessMember{
		UserID: user.ID,
		Roles:  []string{models.RoleAdmin, models.RoleManager},
		Status: models.MemberStatusActive,
	}
	if err := m.CreateMess(ctx, mess, creator); err != nil {
		t.Fatalf("create mess: %v", err)
	}
	return mess.ID, user.ID
}

func TestGuardedStatusTransition(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, userID := seedMess(t, m)

	cost := &models.ServiceCost{
		MessID: messID, Month: "2025-03", Name: "rent",
		Amount: 1000, Status: models.StatusPending, CreatedBy: userID,
	}
	if err := m.CreateServiceCost(ctx, cost); err != nil {
		t.Fatalf("create cost: %v", err)
	}

	if err := m.SetServiceCostStatus(ctx, cost.ID, models.StatusPending, models.StatusApproved); err != nil {
		t.Fatalf("guarded transition: %v", err)
	}
	// The row exists but is no longer pending: conflict, not not-found.
	err := m.SetServiceCostStatus(ctx, cost.ID, models.StatusPending, models.StatusRejected)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	err = m.SetServiceCostStatus(ctx, uuid.New(), models.StatusPending, models.StatusApproved)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGuardedBazarUpdateToken(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, userID := seedMess(t, m)

	entry := &models.BazarEntry{
		MessID: messID, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Month: "2025-03", BuyerID: userID, Amount: 500, Status: models.StatusPending,
	}
	if err := m.CreateBazarEntry(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	token := entry.UpdatedAt

	if err := m.UpdateBazarEntry(ctx, entry.ID, token, map[string]interface{}{"amount": int64(600)}); err != nil {
		t.Fatalf("update with fresh token: %v", err)
	}
	err := m.UpdateBazarEntry(ctx, entry.ID, token, map[string]interface{}{"amount": int64(700)})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict on stale token, got %v", err)
	}

	got, err := m.GetBazarEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.Amount != 600 {
		t.Fatalf("amount = %d, stale write must not apply", got.Amount)
	}
}

func TestUpdateMemberStatusGuard(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, _ := seedMess(t, m)

	user := &models.User{Email: "b@example.com", Name: "B", PasswordHash: "x"}
	if err := m.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	member := &models.MessMember{
		MessID: messID, UserID: user.ID,
		Roles: []string{models.RoleMember}, Status: models.MemberStatusPending,
	}
	if err := m.AddMember(ctx, member); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if err := m.UpdateMemberStatus(ctx, messID, user.ID, models.MemberStatusPending, models.MemberStatusActive); err != nil {
		t.Fatalf("activate: %v", err)
	}
	err := m.UpdateMemberStatus(ctx, messID, user.ID, models.MemberStatusPending, models.MemberStatusActive)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict on repeated activation, got %v", err)
	}
}

func TestActiveMembersRosterOrder(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, creatorID := seedMess(t, m)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		user := &models.User{Email: fmt.Sprintf("u%d@example.com", i), Name: "x", PasswordHash: "x"}
		if err := m.CreateUser(ctx, user); err != nil {
			t.Fatalf("create user: %v", err)
		}
		member := &models.MessMember{
			MessID: messID, UserID: user.ID,
			Roles: []string{models.RoleMember}, Status: models.MemberStatusActive,
			JoinedAt: base.Add(time.Duration(3-i) * time.Hour), // reverse join order
		}
		if err := m.AddMember(ctx, member); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	roster, err := m.ActiveMembers(ctx, messID)
	if err != nil {
		t.Fatalf("active members: %v", err)
	}
	if len(roster) != 4 {
		t.Fatalf("expected 4 active members, got %d", len(roster))
	}
	if roster[0].UserID != creatorID {
		t.Fatal("creator joined first and must lead the roster")
	}
	for i := 1; i < len(roster); i++ {
		if roster[i].JoinedAt.Before(roster[i-1].JoinedAt) {
			t.Fatalf("roster out of joined_at order at index %d", i)
		}
	}
}

func TestUpsertMealLogReplaces(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, userID := seedMess(t, m)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, count := range []int{3, 1} {
		if err := m.UpsertMealLog(ctx, &models.MealLog{
			MessID: messID, UserID: userID, Date: day, Month: "2025-03", MealCount: count,
		}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	meals, err := m.ListMealLogs(ctx, messID, "2025-03")
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 || meals[0].MealCount != 1 {
		t.Fatalf("expected one row with count 1, got %+v", meals)
	}
}

func TestLoadMonthGathersLedger(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, userID := seedMess(t, m)

	if err := m.CreateServiceCost(ctx, &models.ServiceCost{
		MessID: messID, Month: "2025-03", Name: "rent",
		Amount: 1000, Status: models.StatusApproved, CreatedBy: userID,
	}); err != nil {
		t.Fatalf("create cost: %v", err)
	}
	if err := m.CreateBazarEntry(ctx, &models.BazarEntry{
		MessID: messID, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Month: "2025-03", BuyerID: userID, Amount: 500, Status: models.StatusApproved,
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := m.UpsertMealLog(ctx, &models.MealLog{
		MessID: messID, UserID: userID,
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Month: "2025-03", MealCount: 2,
	}); err != nil {
		t.Fatalf("upsert meal: %v", err)
	}
	if err := m.CreatePayment(ctx, &models.Payment{
		MessID: messID, UserID: userID, Month: "2025-03",
		Amount: 200, Account: models.AccountHouse, RecordedBy: userID,
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	// Another month's rows must not leak into the snapshot.
	if err := m.CreatePayment(ctx, &models.Payment{
		MessID: messID, UserID: userID, Month: "2025-04",
		Amount: 999, Account: models.AccountHouse, RecordedBy: userID,
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	rec, err := m.LoadMonth(ctx, messID, "2025-03")
	if err != nil {
		t.Fatalf("load month: %v", err)
	}
	if len(rec.Roster) != 1 || rec.Roster[0].UserID != userID {
		t.Fatalf("roster = %+v, expected the seeded member", rec.Roster)
	}
	if len(rec.Costs) != 1 || len(rec.Bazar) != 1 || len(rec.Meals) != 1 {
		t.Fatalf("ledger counts = %d/%d/%d, expected 1/1/1",
			len(rec.Costs), len(rec.Bazar), len(rec.Meals))
	}
	if len(rec.Payments) != 1 || rec.Payments[0].Amount != 200 {
		t.Fatalf("payments = %+v, expected only the 2025-03 row", rec.Payments)
	}

	if _, err := m.LoadMonth(ctx, uuid.New(), "2025-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for unknown mess, got %v", err)
	}
}

func TestMonthLockLifecycle(t *testing.T) {
	m := New()
	ctx := context.Background()
	messID, userID := seedMess(t, m)

	lock, err := m.GetMonthLock(ctx, messID, "2025-03")
	if err != nil || lock != nil {
		t.Fatalf("open month should return nil, nil; got %v, %v", lock, err)
	}

	if err := m.PutMonthLock(ctx, &models.MonthLock{MessID: messID, Month: "2025-03", LockedBy: userID}); err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Re-locking is a no-op.
	if err := m.PutMonthLock(ctx, &models.MonthLock{MessID: messID, Month: "2025-03", LockedBy: userID}); err != nil {
		t.Fatalf("re-lock: %v", err)
	}

	lock, err = m.GetMonthLock(ctx, messID, "2025-03")
	if err != nil || lock == nil {
		t.Fatalf("expected lock, got %v, %v", lock, err)
	}

	if err := m.DeleteMonthLock(ctx, messID, "2025-03"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := m.DeleteMonthLock(ctx, messID, "2025-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on double unlock, got %v", err)
	}
}
