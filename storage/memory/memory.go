// Package memory is an in-memory implementation of the storage contract,
// used by service tests. It mirrors the Postgres implementation's guarded
// update semantics, including ErrConflict on stale tokens.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
)

type Memory struct {
	mu sync.Mutex

	users       map[uuid.UUID]models.User
	messes      map[uuid.UUID]models.Mess
	members     map[uuid.UUID]map[uuid.UUID]models.MessMember
	costs       map[uuid.UUID]models.ServiceCost
	bazar       map[uuid.UUID]models.BazarEntry
	meals       map[string]models.MealLog
	payments    map[uuid.UUID]models.Payment
	locks       map[string]models.MonthLock
	invitations map[uuid.UUID]models.Invitation
	activities  []models.Activity
}

var _ storage.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:       make(map[uuid.UUID]models.User),
		messes:      make(map[uuid.UUID]models.Mess),
		members:     make(map[uuid.UUID]map[uuid.UUID]models.MessMember),
		costs:       make(map[uuid.UUID]models.ServiceCost),
		bazar:       make(map[uuid.UUID]models.BazarEntry),
		meals:       make(map[string]models.MealLog),
		payments:    make(map[uuid.UUID]models.Payment),
		locks:       make(map[string]models.MonthLock),
		invitations: make(map[uuid.UUID]models.Invitation),
	}
}

func mealKey(messID, userID uuid.UUID, date time.Time) string {
	return messID.String() + "|" + userID.String() + "|" + date.Format("2006-01-02")
}

func lockKey(messID uuid.UUID, month string) string {
	return messID.String() + "|" + month
}

// Users

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if v, ok := updates["name"].(string); ok {
		user.Name = v
	}
	if v, ok := updates["phone"].(string); ok {
		user.Phone = v
	}
	if v, ok := updates["fcm_token"].(string); ok {
		user.FCMToken = v
	}
	m.users[id] = user
	return nil
}

// Messes and membership

func (m *Memory) CreateMess(ctx context.Context, mess *models.Mess, creator *models.MessMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mess.ID == uuid.Nil {
		mess.ID = uuid.New()
	}
	if mess.CreatedAt.IsZero() {
		mess.CreatedAt = time.Now()
	}
	m.messes[mess.ID] = *mess
	creator.MessID = mess.ID
	if creator.JoinedAt.IsZero() {
		creator.JoinedAt = time.Now()
	}
	m.members[mess.ID] = map[uuid.UUID]models.MessMember{creator.UserID: *creator}
	return nil
}

func (m *Memory) GetMess(ctx context.Context, id uuid.UUID) (*models.Mess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mess, ok := m.messes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &mess, nil
}

func (m *Memory) AddMember(ctx context.Context, member *models.MessMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messes[member.MessID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := m.members[member.MessID][member.UserID]; ok {
		return storage.ErrDuplicate
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	if m.members[member.MessID] == nil {
		m.members[member.MessID] = make(map[uuid.UUID]models.MessMember)
	}
	m.members[member.MessID][member.UserID] = *member
	return nil
}

func (m *Memory) GetMember(ctx context.Context, messID, userID uuid.UUID) (*models.MessMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[messID][userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &member, nil
}

func (m *Memory) UpdateMemberStatus(ctx context.Context, messID, userID uuid.UUID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[messID][userID]
	if !ok {
		return storage.ErrNotFound
	}
	if member.Status != from {
		return storage.ErrConflict
	}
	member.Status = to
	m.members[messID][userID] = member
	return nil
}

func (m *Memory) UpdateMemberRoles(ctx context.Context, messID, userID uuid.UUID, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[messID][userID]
	if !ok {
		return storage.ErrNotFound
	}
	member.Roles = append([]string(nil), roles...)
	m.members[messID][userID] = member
	return nil
}

func (m *Memory) RemoveMember(ctx context.Context, messID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[messID][userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.members[messID], userID)
	return nil
}

func (m *Memory) ActiveMembers(ctx context.Context, messID uuid.UUID) ([]models.Member, error) {
	return m.Members(ctx, messID, models.MemberStatusActive)
}

func (m *Memory) Members(ctx context.Context, messID uuid.UUID, status string) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.membersLocked(messID, status)
}

func (m *Memory) membersLocked(messID uuid.UUID, status string) ([]models.Member, error) {
	if _, ok := m.messes[messID]; !ok {
		return nil, storage.ErrNotFound
	}
	var members []models.Member
	for _, row := range m.members[messID] {
		if status != "" && row.Status != status {
			continue
		}
		members = append(members, models.Member{
			UserID:   row.UserID,
			Name:     m.users[row.UserID].Name,
			Roles:    append([]string(nil), row.Roles...),
			Status:   row.Status,
			JoinedAt: row.JoinedAt,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID.String() < members[j].UserID.String()
	})
	return members, nil
}

// Service costs

func (m *Memory) CreateServiceCost(ctx context.Context, cost *models.ServiceCost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cost.ID == uuid.Nil {
		cost.ID = uuid.New()
	}
	if cost.CreatedAt.IsZero() {
		cost.CreatedAt = time.Now()
	}
	m.costs[cost.ID] = *cost
	return nil
}

func (m *Memory) GetServiceCost(ctx context.Context, id uuid.UUID) (*models.ServiceCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cost, ok := m.costs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &cost, nil
}

func (m *Memory) ListServiceCosts(ctx context.Context, messID uuid.UUID, month, status string) ([]models.ServiceCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.costsLocked(messID, month, status), nil
}

func (m *Memory) costsLocked(messID uuid.UUID, month, status string) []models.ServiceCost {
	var costs []models.ServiceCost
	for _, c := range m.costs {
		if c.MessID != messID || c.Month != month {
			continue
		}
		if status != storage.StatusAny && c.Status != status {
			continue
		}
		costs = append(costs, c)
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].CreatedAt.Before(costs[j].CreatedAt) })
	return costs
}

func (m *Memory) SetServiceCostStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cost, ok := m.costs[id]
	if !ok {
		return storage.ErrNotFound
	}
	if cost.Status != from {
		return storage.ErrConflict
	}
	cost.Status = to
	m.costs[id] = cost
	return nil
}

func (m *Memory) DeleteServiceCost(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.costs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.costs, id)
	return nil
}

// Bazar entries

func (m *Memory) CreateBazarEntry(ctx context.Context, entry *models.BazarEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	m.bazar[entry.ID] = *entry
	return nil
}

func (m *Memory) GetBazarEntry(ctx context.Context, id uuid.UUID) (*models.BazarEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.bazar[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &entry, nil
}

func (m *Memory) ListBazarEntries(ctx context.Context, messID uuid.UUID, month string) ([]models.BazarEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bazarLocked(messID, month), nil
}

func (m *Memory) bazarLocked(messID uuid.UUID, month string) []models.BazarEntry {
	var entries []models.BazarEntry
	for _, e := range m.bazar {
		if e.MessID == messID && e.Month == month {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries
}

func (m *Memory) UpdateBazarEntry(ctx context.Context, id uuid.UUID, expectedUpdatedAt time.Time, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.bazar[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !entry.UpdatedAt.Equal(expectedUpdatedAt) {
		return storage.ErrConflict
	}
	if v, ok := updates["amount"].(int64); ok {
		entry.Amount = v
	}
	if v, ok := updates["items"].(string); ok {
		entry.Items = v
	}
	if v, ok := updates["date"].(time.Time); ok {
		entry.Date = v
	}
	if v, ok := updates["month"].(string); ok {
		entry.Month = v
	}
	entry.UpdatedAt = time.Now()
	m.bazar[id] = entry
	return nil
}

func (m *Memory) SetBazarStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.bazar[id]
	if !ok {
		return storage.ErrNotFound
	}
	if entry.Status != from {
		return storage.ErrConflict
	}
	entry.Status = to
	entry.UpdatedAt = time.Now()
	m.bazar[id] = entry
	return nil
}

func (m *Memory) DeleteBazarEntry(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bazar[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.bazar, id)
	return nil
}

// Meal logs

func (m *Memory) UpsertMealLog(ctx context.Context, meal *models.MealLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meals[mealKey(meal.MessID, meal.UserID, meal.Date)] = *meal
	return nil
}

func (m *Memory) ListMealLogs(ctx context.Context, messID uuid.UUID, month string) ([]models.MealLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mealsLocked(messID, month), nil
}

func (m *Memory) mealsLocked(messID uuid.UUID, month string) []models.MealLog {
	var meals []models.MealLog
	for _, ml := range m.meals {
		if ml.MessID == messID && ml.Month == month {
			meals = append(meals, ml)
		}
	}
	sort.Slice(meals, func(i, j int) bool {
		if !meals[i].Date.Equal(meals[j].Date) {
			return meals[i].Date.Before(meals[j].Date)
		}
		return meals[i].UserID.String() < meals[j].UserID.String()
	})
	return meals
}

// Payments

func (m *Memory) CreatePayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *Memory) ListPayments(ctx context.Context, messID uuid.UUID, month string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentsLocked(messID, month), nil
}

func (m *Memory) paymentsLocked(messID uuid.UUID, month string) []models.Payment {
	var payments []models.Payment
	for _, p := range m.payments {
		if p.MessID == messID && p.Month == month {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.Before(payments[j].CreatedAt) })
	return payments
}

// LoadMonth gathers the roster and all four ledgers under one lock hold,
// matching the read-only transaction the Postgres store uses.
func (m *Memory) LoadMonth(ctx context.Context, messID uuid.UUID, month string) (*storage.MonthRecords, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster, err := m.membersLocked(messID, models.MemberStatusActive)
	if err != nil {
		return nil, err
	}
	return &storage.MonthRecords{
		Roster:   roster,
		Costs:    m.costsLocked(messID, month, storage.StatusAny),
		Bazar:    m.bazarLocked(messID, month),
		Meals:    m.mealsLocked(messID, month),
		Payments: m.paymentsLocked(messID, month),
	}, nil
}

// Month locks

func (m *Memory) GetMonthLock(ctx context.Context, messID uuid.UUID, month string) (*models.MonthLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[lockKey(messID, month)]
	if !ok {
		return nil, nil
	}
	return &lock, nil
}

func (m *Memory) PutMonthLock(ctx context.Context, lock *models.MonthLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lockKey(lock.MessID, lock.Month)
	if _, ok := m.locks[key]; ok {
		return nil
	}
	if lock.LockedAt.IsZero() {
		lock.LockedAt = time.Now()
	}
	m.locks[key] = *lock
	return nil
}

func (m *Memory) DeleteMonthLock(ctx context.Context, messID uuid.UUID, month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lockKey(messID, month)
	if _, ok := m.locks[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.locks, key)
	return nil
}

// Invitations

func (m *Memory) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	m.invitations[inv.ID] = *inv
	return nil
}

func (m *Memory) PendingInvitation(ctx context.Context, messID uuid.UUID, email string) (*models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.MessID == messID && inv.Email == email && inv.Status == models.InvitationPending {
			found := inv
			return &found, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) PendingInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var invs []models.Invitation
	for _, inv := range m.invitations {
		if inv.Email == email && inv.Status == models.InvitationPending {
			invs = append(invs, inv)
		}
	}
	return invs, nil
}

func (m *Memory) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return storage.ErrNotFound
	}
	inv.Status = status
	m.invitations[id] = inv
	return nil
}

// Activity feed

func (m *Memory) CreateActivity(ctx context.Context, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *Memory) ListActivity(ctx context.Context, messID uuid.UUID, limit, offset int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].MessID == messID {
			out = append(out, m.activities[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
