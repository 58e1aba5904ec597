package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"mess-backend/config"
	"mess-backend/models"
	"mess-backend/storage/memory"
)

// testEnv wires the services against the in-memory store and cache, with a
// mess of one manager and one regular member already set up.
type testEnv struct {
	store     *memory.Memory
	cache     *MemorySummaryCache
	finance   *FinanceService
	summaries *SummaryService
	messes    *MessService
	manager   *models.User
	member    *models.User
	mess      *models.Mess
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	cache := NewMemorySummaryCache()
	notify := &NotificationService{cfg: &config.Config{}, store: store}

	env := &testEnv{
		store:     store,
		cache:     cache,
		finance:   NewFinanceService(store, cache, notify),
		summaries: NewSummaryService(store, cache),
		messes:    NewMessService(store, cache, notify),
	}

	env.manager = env.newUser(t, "manager@example.com", "Manager")
	env.member = env.newUser(t, "member@example.com", "Member")

	mess, err := env.messes.CreateMess(ctx, env.manager.ID, models.CreateMessRequest{Name: "Hostel 7"})
	if err != nil {
		t.Fatalf("create mess: %v", err)
	}
	env.mess = mess

	env.join(t, env.member.ID)
	return env
}

func (e *testEnv) newUser(t *testing.T, email, name string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: name, PasswordHash: "x"}
	if err := e.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// join files and approves a membership for userID.
func (e *testEnv) join(t *testing.T, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	if err := e.messes.RequestJoin(ctx, e.mess.ID, userID); err != nil {
		t.Fatalf("request join: %v", err)
	}
	if err := e.messes.ApproveMember(ctx, e.mess.ID, e.manager.ID, userID); err != nil {
		t.Fatalf("approve member: %v", err)
	}
}

func (e *testEnv) addCost(t *testing.T, month string, amount int64) *models.ServiceCost {
	t.Helper()
	cost, err := e.finance.AddServiceCost(context.Background(), e.mess.ID, e.manager.ID, models.CreateCostRequest{
		Month:  month,
		Name:   "rent",
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("add service cost: %v", err)
	}
	return cost
}

func intPtr(n int) *int { return &n }
