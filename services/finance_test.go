package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/storage"
)

func TestAddServiceCostRequiresManager(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.finance.AddServiceCost(context.Background(), env.mess.ID, env.member.ID, models.CreateCostRequest{
		Month: "2025-03", Name: "rent", Amount: 1000,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestAddServiceCostValidatesMonth(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.finance.AddServiceCost(context.Background(), env.mess.ID, env.manager.ID, models.CreateCostRequest{
		Month: "March 2025", Name: "rent", Amount: 1000,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddServiceCostBumpsCacheVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")
	env.addCost(t, "2025-03", 1000)
	after, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")

	if before == after {
		t.Fatalf("cache version unchanged across a ledger write: %s", after)
	}
}

func TestSetServiceCostStatusLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seed a pending cost directly; manager-created costs skip the queue.
	pending := &models.ServiceCost{
		MessID: env.mess.ID, Month: "2025-03", Name: "cleaner",
		Amount: 500, Status: models.StatusPending, CreatedBy: env.member.ID,
	}
	if err := env.store.CreateServiceCost(ctx, pending); err != nil {
		t.Fatalf("seed cost: %v", err)
	}

	cost, err := env.finance.SetServiceCostStatus(ctx, env.mess.ID, pending.ID, env.manager.ID, models.StatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if cost.Status != models.StatusApproved {
		t.Fatalf("status = %s, expected approved", cost.Status)
	}

	// Re-approving is an idempotent no-op.
	if _, err := env.finance.SetServiceCostStatus(ctx, env.mess.ID, pending.ID, env.manager.ID, models.StatusApproved); err != nil {
		t.Fatalf("re-approve should be a no-op, got %v", err)
	}

	// Approved is terminal.
	if _, err := env.finance.SetServiceCostStatus(ctx, env.mess.ID, pending.ID, env.manager.ID, models.StatusRejected); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on terminal transition, got %v", err)
	}
}

func TestSetServiceCostStatusRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	cost := env.addCost(t, "2025-03", 1000)

	_, err := env.finance.SetServiceCostStatus(context.Background(), env.mess.ID, cost.ID, env.member.ID, models.StatusRejected)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestBazarApprovalWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A regular member's entry starts pending.
	entry, err := env.finance.AddBazar(ctx, env.mess.ID, env.member.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 3000, Items: "rice, fish",
	})
	if err != nil {
		t.Fatalf("add bazar: %v", err)
	}
	if entry.Status != models.StatusPending {
		t.Fatalf("member entry status = %s, expected pending", entry.Status)
	}
	if entry.Month != "2025-03" {
		t.Fatalf("derived month = %s, expected 2025-03", entry.Month)
	}

	// A manager's entry is approved on creation.
	managerEntry, err := env.finance.AddBazar(ctx, env.mess.ID, env.manager.ID, models.CreateBazarRequest{
		Date: "2025-03-11", Amount: 2000,
	})
	if err != nil {
		t.Fatalf("add manager bazar: %v", err)
	}
	if managerEntry.Status != models.StatusApproved {
		t.Fatalf("manager entry status = %s, expected approved", managerEntry.Status)
	}

	// Members cannot approve.
	if _, err := env.finance.SetBazarStatus(ctx, env.mess.ID, entry.ID, env.member.ID, models.StatusApproved); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	approved, err := env.finance.SetBazarStatus(ctx, env.mess.ID, entry.ID, env.manager.ID, models.StatusApproved)
	if err != nil {
		t.Fatalf("approve bazar: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Fatalf("status = %s, expected approved", approved.Status)
	}

	// Idempotent re-approval, terminal afterwards.
	if _, err := env.finance.SetBazarStatus(ctx, env.mess.ID, entry.ID, env.manager.ID, models.StatusApproved); err != nil {
		t.Fatalf("re-approve should be a no-op, got %v", err)
	}
	if _, err := env.finance.SetBazarStatus(ctx, env.mess.ID, entry.ID, env.manager.ID, models.StatusRejected); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on terminal transition, got %v", err)
	}
}

func TestUpdateBazarOptimisticConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.finance.AddBazar(ctx, env.mess.ID, env.member.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 3000,
	})
	if err != nil {
		t.Fatalf("add bazar: %v", err)
	}
	token := entry.UpdatedAt.Format(time.RFC3339Nano)

	// First edit with the fresh token succeeds.
	updated, err := env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, env.member.ID, models.UpdateBazarRequest{
		Amount: 3500, UpdatedAt: token,
	})
	if err != nil {
		t.Fatalf("update bazar: %v", err)
	}
	if updated.Amount != 3500 {
		t.Fatalf("amount = %d, expected 3500", updated.Amount)
	}

	// Replaying the stale token loses.
	_, err = env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, env.member.ID, models.UpdateBazarRequest{
		Amount: 9999, UpdatedAt: token,
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestUpdateBazarOnlyOwnerOrManager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.newUser(t, "other@example.com", "Other")
	env.join(t, other.ID)

	entry, err := env.finance.AddBazar(ctx, env.mess.ID, env.member.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 3000,
	})
	if err != nil {
		t.Fatalf("add bazar: %v", err)
	}
	token := entry.UpdatedAt.Format(time.RFC3339Nano)

	_, err = env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, other.ID, models.UpdateBazarRequest{
		Amount: 1, UpdatedAt: token,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-owner, got %v", err)
	}

	// The manager may edit any pending entry.
	if _, err := env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, env.manager.ID, models.UpdateBazarRequest{
		Amount: 3100, UpdatedAt: token,
	}); err != nil {
		t.Fatalf("manager edit: %v", err)
	}
}

func TestManagerEditsApprovedBazar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A manager's entry is approved on creation and already feeds the month.
	entry, err := env.finance.AddBazar(ctx, env.mess.ID, env.manager.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 3000,
	})
	if err != nil {
		t.Fatalf("add bazar: %v", err)
	}
	before, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")

	updated, err := env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, env.manager.ID, models.UpdateBazarRequest{
		Amount: 3500, UpdatedAt: entry.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("manager edit of approved entry: %v", err)
	}
	if updated.Amount != 3500 || updated.Status != models.StatusApproved {
		t.Fatalf("entry = %d/%s, expected 3500/approved", updated.Amount, updated.Status)
	}

	// The correction changes the totals, so the month must recompute.
	after, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")
	if after == before {
		t.Fatalf("cache version unchanged after editing an approved entry: %s", after)
	}

	// The owner, however, may only edit while pending.
	memberEntry, err := env.finance.AddBazar(ctx, env.mess.ID, env.member.ID, models.CreateBazarRequest{
		Date: "2025-03-12", Amount: 500,
	})
	if err != nil {
		t.Fatalf("add member bazar: %v", err)
	}
	if _, err := env.finance.SetBazarStatus(ctx, env.mess.ID, memberEntry.ID, env.manager.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve member bazar: %v", err)
	}
	approved, err := env.store.GetBazarEntry(ctx, memberEntry.ID)
	if err != nil {
		t.Fatalf("refetch entry: %v", err)
	}
	_, err = env.finance.UpdateBazar(ctx, env.mess.ID, memberEntry.ID, env.member.ID, models.UpdateBazarRequest{
		Amount: 600, UpdatedAt: approved.UpdatedAt.Format(time.RFC3339Nano),
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied for owner edit of approved entry, got %v", err)
	}
}

func TestManagerMovesApprovedBazarAcrossMonths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.finance.AddBazar(ctx, env.mess.ID, env.manager.ID, models.CreateBazarRequest{
		Date: "2025-03-31", Amount: 1000,
	})
	if err != nil {
		t.Fatalf("add bazar: %v", err)
	}
	marchBefore, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")
	aprilBefore, _ := env.cache.Version(ctx, env.mess.ID, "2025-04")

	moved, err := env.finance.UpdateBazar(ctx, env.mess.ID, entry.ID, env.manager.ID, models.UpdateBazarRequest{
		Date: "2025-04-01", UpdatedAt: entry.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("move entry: %v", err)
	}
	if moved.Month != "2025-04" {
		t.Fatalf("month = %s, expected 2025-04", moved.Month)
	}

	// Both the month it left and the month it joined recompute.
	marchAfter, _ := env.cache.Version(ctx, env.mess.ID, "2025-03")
	aprilAfter, _ := env.cache.Version(ctx, env.mess.ID, "2025-04")
	if marchAfter == marchBefore {
		t.Fatal("source month version unchanged after the move")
	}
	if aprilAfter == aprilBefore {
		t.Fatal("target month version unchanged after the move")
	}
}

func TestLogMealUpsertsAndAllowsZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.finance.LogMeal(ctx, env.mess.ID, env.member.ID, models.LogMealRequest{
		Date: "2025-03-10", MealCount: intPtr(3),
	}); err != nil {
		t.Fatalf("log meal: %v", err)
	}

	// Re-logging the same day replaces, not accumulates. Zero is a valid
	// correction.
	if _, err := env.finance.LogMeal(ctx, env.mess.ID, env.member.ID, models.LogMealRequest{
		Date: "2025-03-10", MealCount: intPtr(0),
	}); err != nil {
		t.Fatalf("re-log meal: %v", err)
	}

	meals, err := env.finance.ListMealLogs(ctx, env.mess.ID, env.member.ID, "2025-03")
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal row after upsert, got %d", len(meals))
	}
	if meals[0].MealCount != 0 {
		t.Fatalf("meal count = %d, expected 0 after correction", meals[0].MealCount)
	}
}

func TestLogMealForOthersRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.finance.LogMeal(ctx, env.mess.ID, env.member.ID, models.LogMealRequest{
		UserID: env.manager.ID.String(), Date: "2025-03-10", MealCount: intPtr(2),
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	if _, err := env.finance.LogMeal(ctx, env.mess.ID, env.manager.ID, models.LogMealRequest{
		UserID: env.member.ID.String(), Date: "2025-03-10", MealCount: intPtr(2),
	}); err != nil {
		t.Fatalf("manager logging for member: %v", err)
	}
}

func TestLogMealRejectsNegativeCount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.finance.LogMeal(context.Background(), env.mess.ID, env.member.ID, models.LogMealRequest{
		Date: "2025-03-10", MealCount: intPtr(-1),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordPaymentForOthersRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.finance.RecordPayment(ctx, env.mess.ID, env.member.ID, models.RecordPaymentRequest{
		UserID: env.manager.ID.String(), Month: "2025-03", Amount: 500, Account: models.AccountHouse,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	payment, err := env.finance.RecordPayment(ctx, env.mess.ID, env.member.ID, models.RecordPaymentRequest{
		Month: "2025-03", Amount: 500, Account: models.AccountMeal,
	})
	if err != nil {
		t.Fatalf("self payment: %v", err)
	}
	if payment.UserID != env.member.ID || payment.RecordedBy != env.member.ID {
		t.Fatal("payment should be attributed to the acting member")
	}
}

func TestRecordPaymentRequiresActiveTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Unknown user id.
	_, err := env.finance.RecordPayment(ctx, env.mess.ID, env.manager.ID, models.RecordPaymentRequest{
		UserID: uuid.New().String(), Month: "2025-03", Amount: 500, Account: models.AccountHouse,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for non-member target, got %v", err)
	}

	// A join request that has not been approved is not a payable member.
	pending := env.newUser(t, "pending@example.com", "Pending")
	if err := env.messes.RequestJoin(ctx, env.mess.ID, pending.ID); err != nil {
		t.Fatalf("request join: %v", err)
	}
	_, err = env.finance.RecordPayment(ctx, env.mess.ID, env.manager.ID, models.RecordPaymentRequest{
		UserID: pending.ID.String(), Month: "2025-03", Amount: 500, Account: models.AccountHouse,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for pending target, got %v", err)
	}

	// An active member is fine.
	payment, err := env.finance.RecordPayment(ctx, env.mess.ID, env.manager.ID, models.RecordPaymentRequest{
		UserID: env.member.ID.String(), Month: "2025-03", Amount: 500, Account: models.AccountHouse,
	})
	if err != nil {
		t.Fatalf("payment for active member: %v", err)
	}
	if payment.UserID != env.member.ID || payment.RecordedBy != env.manager.ID {
		t.Fatal("payment should credit the target and record the manager")
	}
}

func TestMonthLockBlocksWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.finance.LockMonth(ctx, env.mess.ID, env.manager.ID, "2025-03"); err != nil {
		t.Fatalf("lock month: %v", err)
	}

	_, err := env.finance.AddServiceCost(ctx, env.mess.ID, env.manager.ID, models.CreateCostRequest{
		Month: "2025-03", Name: "rent", Amount: 1000,
	})
	if !errors.Is(err, ErrMonthLocked) {
		t.Fatalf("expected month locked on cost, got %v", err)
	}
	_, err = env.finance.AddBazar(ctx, env.mess.ID, env.manager.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 500,
	})
	if !errors.Is(err, ErrMonthLocked) {
		t.Fatalf("expected month locked on bazar, got %v", err)
	}
	_, err = env.finance.LogMeal(ctx, env.mess.ID, env.member.ID, models.LogMealRequest{
		Date: "2025-03-10", MealCount: intPtr(2),
	})
	if !errors.Is(err, ErrMonthLocked) {
		t.Fatalf("expected month locked on meal, got %v", err)
	}

	// Other months stay writable.
	if _, err := env.finance.AddServiceCost(ctx, env.mess.ID, env.manager.ID, models.CreateCostRequest{
		Month: "2025-04", Name: "rent", Amount: 1000,
	}); err != nil {
		t.Fatalf("write to open month: %v", err)
	}

	if err := env.finance.UnlockMonth(ctx, env.mess.ID, env.manager.ID, "2025-03"); err != nil {
		t.Fatalf("unlock month: %v", err)
	}
	if _, err := env.finance.AddServiceCost(ctx, env.mess.ID, env.manager.ID, models.CreateCostRequest{
		Month: "2025-03", Name: "rent", Amount: 1000,
	}); err != nil {
		t.Fatalf("write after unlock: %v", err)
	}
}

func TestLockMonthRequiresManager(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.finance.LockMonth(context.Background(), env.mess.ID, env.member.ID, "2025-03")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestListBazarEntriesVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.newUser(t, "other@example.com", "Other")
	env.join(t, other.ID)

	if _, err := env.finance.AddBazar(ctx, env.mess.ID, env.member.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 100,
	}); err != nil {
		t.Fatalf("add pending bazar: %v", err)
	}
	if _, err := env.finance.AddBazar(ctx, env.mess.ID, env.manager.ID, models.CreateBazarRequest{
		Date: "2025-03-11", Amount: 200,
	}); err != nil {
		t.Fatalf("add approved bazar: %v", err)
	}

	// The buyer sees their own pending entry plus approved ones.
	entries, err := env.finance.ListBazarEntries(ctx, env.mess.ID, env.member.ID, "2025-03")
	if err != nil {
		t.Fatalf("list as buyer: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("buyer should see 2 entries, got %d", len(entries))
	}

	// An unrelated member sees only the approved one.
	entries, err = env.finance.ListBazarEntries(ctx, env.mess.ID, other.ID, "2025-03")
	if err != nil {
		t.Fatalf("list as other: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != models.StatusApproved {
		t.Fatalf("other member should see only the approved entry, got %d", len(entries))
	}

	// The manager sees everything.
	entries, err = env.finance.ListBazarEntries(ctx, env.mess.ID, env.manager.ID, "2025-03")
	if err != nil {
		t.Fatalf("list as manager: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("manager should see 2 entries, got %d", len(entries))
	}
}

func TestNonMemberWritesAreRejected(t *testing.T) {
	env := newTestEnv(t)
	stranger := env.newUser(t, "stranger@example.com", "Stranger")

	_, err := env.finance.AddBazar(context.Background(), env.mess.ID, stranger.ID, models.CreateBazarRequest{
		Date: "2025-03-10", Amount: 100,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-member, got %v", err)
	}
}

func TestUnknownMessIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.finance.ListServiceCosts(context.Background(), env.member.ID, env.manager.ID, "2025-03")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
