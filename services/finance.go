package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/storage"
)

// FinanceService owns every ledger write: service costs, bazar entries,
// meal logs, payments and month locks. Each write validates, checks
// permissions and the month lock, persists, then synchronously bumps the
// summary cache version before returning. Push notifications go out async.
type FinanceService struct {
	store  storage.Store
	cache  SummaryCache
	notify *NotificationService
}

func NewFinanceService(store storage.Store, cache SummaryCache, notify *NotificationService) *FinanceService {
	return &FinanceService{store: store, cache: cache, notify: notify}
}

// resolveMember loads the acting user's membership in the mess. Unknown mess
// is ErrNotFound; a missing or non-active membership is a permission error.
func (s *FinanceService) resolveMember(ctx context.Context, messID, userID uuid.UUID) (*models.MessMember, error) {
	if _, err := s.store.GetMess(ctx, messID); err != nil {
		return nil, err
	}
	member, err := s.store.GetMember(ctx, messID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member of this mess", ErrPermissionDenied)
		}
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, fmt.Errorf("%w: membership not active", ErrPermissionDenied)
	}
	return member, nil
}

func (s *FinanceService) ensureUnlocked(ctx context.Context, messID uuid.UUID, month string) error {
	lock, err := s.store.GetMonthLock(ctx, messID, month)
	if err != nil {
		return err
	}
	if lock != nil {
		return fmt.Errorf("%w: %s is settled", ErrMonthLocked, month)
	}
	return nil
}

func (s *FinanceService) invalidateAndNotify(ctx context.Context, messID uuid.UUID, month string) {
	if err := s.cache.InvalidateMonth(ctx, messID, month); err != nil {
		log.Printf("⚠️  cache invalidation failed for %s %s: %v", messID, month, err)
	}
	version, _ := s.cache.Version(ctx, messID, month)
	go s.notify.SummaryUpdated(messID, month, version)
}

func (s *FinanceService) logActivity(ctx context.Context, messID, userID uuid.UUID, actType string, refID uuid.UUID, description string) {
	activity := &models.Activity{
		MessID:      messID,
		UserID:      userID,
		Type:        actType,
		ReferenceID: refID,
		Description: description,
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
}

// ---- Service costs (house account) ----

// AddServiceCost records a fixed monthly expense. Manager only; the cost is
// approved immediately since the manager is the approver.
func (s *FinanceService) AddServiceCost(ctx context.Context, messID, actorID uuid.UUID, req models.CreateCostRequest) (*models.ServiceCost, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.IsManager() {
		return nil, fmt.Errorf("%w: only managers can add service costs", ErrPermissionDenied)
	}
	if !models.ValidMonth(req.Month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	if err := s.ensureUnlocked(ctx, messID, req.Month); err != nil {
		return nil, err
	}

	cost := &models.ServiceCost{
		MessID:    messID,
		Month:     req.Month,
		Name:      req.Name,
		Amount:    req.Amount,
		Status:    models.StatusApproved,
		CreatedBy: actorID,
	}
	if err := s.store.CreateServiceCost(ctx, cost); err != nil {
		return nil, err
	}

	s.invalidateAndNotify(ctx, messID, req.Month)
	s.logActivity(ctx, messID, actorID, models.ActivityCostAdded, cost.ID,
		fmt.Sprintf("added %s (%s)", cost.Name, cost.Month))
	return cost, nil
}

// SetServiceCostStatus moves a cost between approval states. Transitions out
// of pending only; setting the status it already has is an idempotent no-op.
func (s *FinanceService) SetServiceCostStatus(ctx context.Context, messID, costID, actorID uuid.UUID, to string) (*models.ServiceCost, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.IsManager() {
		return nil, fmt.Errorf("%w: only managers can approve costs", ErrPermissionDenied)
	}

	cost, err := s.store.GetServiceCost(ctx, costID)
	if err != nil {
		return nil, err
	}
	if cost.MessID != messID {
		return nil, storage.ErrNotFound
	}
	if cost.Status == to {
		return cost, nil
	}
	if cost.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s entries cannot change status", ErrValidation, cost.Status)
	}
	if err := s.ensureUnlocked(ctx, messID, cost.Month); err != nil {
		return nil, err
	}

	if err := s.store.SetServiceCostStatus(ctx, costID, models.StatusPending, to); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a race. If the other writer made the same transition,
			// treat ours as the idempotent retry it effectively is.
			current, ferr := s.store.GetServiceCost(ctx, costID)
			if ferr == nil && current.Status == to {
				return current, nil
			}
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	cost.Status = to

	s.invalidateAndNotify(ctx, messID, cost.Month)
	s.logActivity(ctx, messID, actorID, models.ActivityCostStatus, cost.ID,
		fmt.Sprintf("%s %s", to, cost.Name))
	return cost, nil
}

func (s *FinanceService) DeleteServiceCost(ctx context.Context, messID, costID, actorID uuid.UUID) error {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return err
	}
	if !member.IsManager() {
		return fmt.Errorf("%w: only managers can delete service costs", ErrPermissionDenied)
	}

	cost, err := s.store.GetServiceCost(ctx, costID)
	if err != nil {
		return err
	}
	if cost.MessID != messID {
		return storage.ErrNotFound
	}
	if err := s.ensureUnlocked(ctx, messID, cost.Month); err != nil {
		return err
	}

	if err := s.store.DeleteServiceCost(ctx, costID); err != nil {
		return err
	}

	s.invalidateAndNotify(ctx, messID, cost.Month)
	s.logActivity(ctx, messID, actorID, models.ActivityCostDeleted, cost.ID,
		fmt.Sprintf("deleted %s (%s)", cost.Name, cost.Month))
	return nil
}

// ListServiceCosts returns a month's costs. Managers see everything;
// regular members see approved entries plus their own in any state.
func (s *FinanceService) ListServiceCosts(ctx context.Context, messID, actorID uuid.UUID, month string) ([]models.ServiceCost, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}

	costs, err := s.store.ListServiceCosts(ctx, messID, month, storage.StatusAny)
	if err != nil {
		return nil, err
	}
	if member.IsManager() {
		return costs, nil
	}
	visible := make([]models.ServiceCost, 0, len(costs))
	for _, c := range costs {
		if c.Status == models.StatusApproved || c.CreatedBy == actorID {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// ---- Bazar entries (meal account) ----

// AddBazar records a grocery purchase for the acting member. A manager's
// entry skips the approval queue.
func (s *FinanceService) AddBazar(ctx context.Context, messID, actorID uuid.UUID, req models.CreateBazarRequest) (*models.BazarEntry, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	month := models.MonthOf(date)
	if err := s.ensureUnlocked(ctx, messID, month); err != nil {
		return nil, err
	}

	status := models.StatusPending
	if member.IsManager() {
		status = models.StatusApproved
	}
	entry := &models.BazarEntry{
		MessID:  messID,
		Date:    date,
		Month:   month,
		BuyerID: actorID,
		Amount:  req.Amount,
		Items:   req.Items,
		Status:  status,
	}
	if err := s.store.CreateBazarEntry(ctx, entry); err != nil {
		return nil, err
	}

	if status == models.StatusApproved {
		s.invalidateAndNotify(ctx, messID, month)
	} else if buyer, uerr := s.store.GetUser(ctx, actorID); uerr == nil {
		if mess, merr := s.store.GetMess(ctx, messID); merr == nil {
			go s.notify.BazarPending(*entry, *buyer, mess.Name)
		}
	}
	s.logActivity(ctx, messID, actorID, models.ActivityBazarAdded, entry.ID,
		fmt.Sprintf("logged bazar for %s", req.Date))
	return entry, nil
}

// UpdateBazar edits an entry. The owner may edit their own entry while it is
// pending; a manager may edit any entry in any state. The caller passes back
// the updated_at token from their last read, and a mismatch means someone
// got there first.
func (s *FinanceService) UpdateBazar(ctx context.Context, messID, entryID, actorID uuid.UUID, req models.UpdateBazarRequest) (*models.BazarEntry, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetBazarEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.MessID != messID {
		return nil, storage.ErrNotFound
	}
	if !member.IsManager() {
		if entry.BuyerID != actorID {
			return nil, fmt.Errorf("%w: not your entry", ErrPermissionDenied)
		}
		if entry.Status != models.StatusPending {
			return nil, fmt.Errorf("%w: only a manager can edit a %s entry", ErrPermissionDenied, entry.Status)
		}
	}

	token, err := time.Parse(time.RFC3339Nano, req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at must be RFC3339", ErrValidation)
	}
	if err := s.ensureUnlocked(ctx, messID, entry.Month); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	newMonth := entry.Month
	if req.Date != "" {
		date, perr := models.ParseDate(req.Date)
		if perr != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		newMonth = models.MonthOf(date)
		if newMonth != entry.Month {
			if lerr := s.ensureUnlocked(ctx, messID, newMonth); lerr != nil {
				return nil, lerr
			}
		}
		updates["date"] = date
		updates["month"] = newMonth
	}
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.Items != "" {
		updates["items"] = req.Items
	}
	if len(updates) == 0 {
		return entry, nil
	}

	if err := s.store.UpdateBazarEntry(ctx, entryID, token, updates); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	// Pending entries do not feed the totals. An approved entry does, so its
	// month recomputes, and a date move touches the month it left as well.
	if entry.Status == models.StatusApproved {
		s.invalidateAndNotify(ctx, messID, entry.Month)
		if newMonth != entry.Month {
			s.invalidateAndNotify(ctx, messID, newMonth)
		}
	}
	s.logActivity(ctx, messID, actorID, models.ActivityBazarUpdated, entryID, "updated bazar entry")
	return s.store.GetBazarEntry(ctx, entryID)
}

// SetBazarStatus approves or rejects a pending entry. Manager only;
// re-applying the current status is a no-op.
func (s *FinanceService) SetBazarStatus(ctx context.Context, messID, entryID, actorID uuid.UUID, to string) (*models.BazarEntry, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.IsManager() {
		return nil, fmt.Errorf("%w: only managers can approve bazar entries", ErrPermissionDenied)
	}

	entry, err := s.store.GetBazarEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.MessID != messID {
		return nil, storage.ErrNotFound
	}
	if entry.Status == to {
		return entry, nil
	}
	if entry.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s entries cannot change status", ErrValidation, entry.Status)
	}
	if err := s.ensureUnlocked(ctx, messID, entry.Month); err != nil {
		return nil, err
	}

	if err := s.store.SetBazarStatus(ctx, entryID, models.StatusPending, to); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, ferr := s.store.GetBazarEntry(ctx, entryID)
			if ferr == nil && current.Status == to {
				return current, nil
			}
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	entry.Status = to

	if to == models.StatusApproved {
		s.invalidateAndNotify(ctx, messID, entry.Month)
		if buyer, uerr := s.store.GetUser(ctx, entry.BuyerID); uerr == nil {
			go s.notify.BazarApproved(*entry, *buyer)
		}
	}
	s.logActivity(ctx, messID, actorID, models.ActivityBazarStatus, entry.ID,
		fmt.Sprintf("%s bazar entry for %s", to, entry.Date.Format("2006-01-02")))
	return entry, nil
}

func (s *FinanceService) DeleteBazar(ctx context.Context, messID, entryID, actorID uuid.UUID) error {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return err
	}

	entry, err := s.store.GetBazarEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.MessID != messID {
		return storage.ErrNotFound
	}
	if entry.BuyerID != actorID && !member.IsManager() {
		return fmt.Errorf("%w: not your entry", ErrPermissionDenied)
	}
	if entry.Status == models.StatusApproved && !member.IsManager() {
		return fmt.Errorf("%w: approved entries can only be removed by a manager", ErrPermissionDenied)
	}
	if err := s.ensureUnlocked(ctx, messID, entry.Month); err != nil {
		return err
	}

	if err := s.store.DeleteBazarEntry(ctx, entryID); err != nil {
		return err
	}

	if entry.Status == models.StatusApproved {
		s.invalidateAndNotify(ctx, messID, entry.Month)
	}
	s.logActivity(ctx, messID, actorID, models.ActivityBazarDeleted, entryID, "deleted bazar entry")
	return nil
}

// ListBazarEntries returns a month's entries: approved ones for everyone,
// plus pending/rejected visible to their buyer and to managers.
func (s *FinanceService) ListBazarEntries(ctx context.Context, messID, actorID uuid.UUID, month string) ([]models.BazarEntry, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}

	entries, err := s.store.ListBazarEntries(ctx, messID, month)
	if err != nil {
		return nil, err
	}
	if member.IsManager() {
		return entries, nil
	}
	visible := make([]models.BazarEntry, 0, len(entries))
	for _, e := range entries {
		if e.Status == models.StatusApproved || e.BuyerID == actorID {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// ---- Meal logs ----

// LogMeal upserts a member's meal count for a day. Members log for
// themselves; managers may log for anyone. A count of zero is a valid
// correction, not a delete.
func (s *FinanceService) LogMeal(ctx context.Context, messID, actorID uuid.UUID, req models.LogMealRequest) (*models.MealLog, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}

	targetID := actorID
	if req.UserID != "" {
		parsed, perr := uuid.Parse(req.UserID)
		if perr != nil {
			return nil, fmt.Errorf("%w: invalid user_id", ErrValidation)
		}
		targetID = parsed
	}
	if targetID != actorID {
		if !member.IsManager() {
			return nil, fmt.Errorf("%w: only managers can log meals for others", ErrPermissionDenied)
		}
		target, terr := s.store.GetMember(ctx, messID, targetID)
		if terr != nil {
			if errors.Is(terr, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: target is not a member", ErrValidation)
			}
			return nil, terr
		}
		if target.Status != models.MemberStatusActive {
			return nil, fmt.Errorf("%w: target membership not active", ErrValidation)
		}
	}

	if req.MealCount == nil || *req.MealCount < 0 {
		return nil, fmt.Errorf("%w: meal_count must be >= 0", ErrValidation)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	month := models.MonthOf(date)
	if err := s.ensureUnlocked(ctx, messID, month); err != nil {
		return nil, err
	}

	meal := &models.MealLog{
		MessID:    messID,
		UserID:    targetID,
		Date:      date,
		Month:     month,
		MealCount: *req.MealCount,
	}
	if err := s.store.UpsertMealLog(ctx, meal); err != nil {
		return nil, err
	}

	s.invalidateAndNotify(ctx, messID, month)
	return meal, nil
}

func (s *FinanceService) ListMealLogs(ctx context.Context, messID, actorID uuid.UUID, month string) ([]models.MealLog, error) {
	if _, err := s.resolveMember(ctx, messID, actorID); err != nil {
		return nil, err
	}
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	return s.store.ListMealLogs(ctx, messID, month)
}

// ---- Payments ----

// RecordPayment books money a member handed in against the house or meal
// account. Members record their own; managers may record for anyone.
func (s *FinanceService) RecordPayment(ctx context.Context, messID, actorID uuid.UUID, req models.RecordPaymentRequest) (*models.Payment, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}

	targetID := actorID
	if req.UserID != "" {
		parsed, perr := uuid.Parse(req.UserID)
		if perr != nil {
			return nil, fmt.Errorf("%w: invalid user_id", ErrValidation)
		}
		targetID = parsed
	}
	if targetID != actorID {
		if !member.IsManager() {
			return nil, fmt.Errorf("%w: only managers can record payments for others", ErrPermissionDenied)
		}
		target, terr := s.store.GetMember(ctx, messID, targetID)
		if terr != nil {
			if errors.Is(terr, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: target is not a member", ErrValidation)
			}
			return nil, terr
		}
		if target.Status != models.MemberStatusActive {
			return nil, fmt.Errorf("%w: target membership not active", ErrValidation)
		}
	}

	if !models.ValidMonth(req.Month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	if err := s.ensureUnlocked(ctx, messID, req.Month); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		MessID:     messID,
		UserID:     targetID,
		Month:      req.Month,
		Amount:     req.Amount,
		Account:    req.Account,
		RecordedBy: actorID,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.invalidateAndNotify(ctx, messID, req.Month)
	s.logActivity(ctx, messID, actorID, models.ActivityPayment, payment.ID,
		fmt.Sprintf("recorded %s payment for %s", req.Account, req.Month))
	return payment, nil
}

func (s *FinanceService) ListPayments(ctx context.Context, messID, actorID uuid.UUID, month string) ([]models.Payment, error) {
	if _, err := s.resolveMember(ctx, messID, actorID); err != nil {
		return nil, err
	}
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	return s.store.ListPayments(ctx, messID, month)
}

// ---- Month locks ----

// LockMonth freezes a settled month. Further ledger writes for it fail until
// a manager unlocks. Locking an already locked month is a no-op.
func (s *FinanceService) LockMonth(ctx context.Context, messID, actorID uuid.UUID, month string) (*models.MonthLock, error) {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.IsManager() {
		return nil, fmt.Errorf("%w: only managers can lock a month", ErrPermissionDenied)
	}
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}

	lock := &models.MonthLock{MessID: messID, Month: month, LockedBy: actorID}
	if err := s.store.PutMonthLock(ctx, lock); err != nil {
		return nil, err
	}
	s.logActivity(ctx, messID, actorID, models.ActivityMonthLocked, uuid.Nil,
		fmt.Sprintf("locked %s", month))
	return lock, nil
}

func (s *FinanceService) UnlockMonth(ctx context.Context, messID, actorID uuid.UUID, month string) error {
	member, err := s.resolveMember(ctx, messID, actorID)
	if err != nil {
		return err
	}
	if !member.IsManager() {
		return fmt.Errorf("%w: only managers can unlock a month", ErrPermissionDenied)
	}
	if !models.ValidMonth(month) {
		return fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}

	if err := s.store.DeleteMonthLock(ctx, messID, month); err != nil {
		return err
	}
	s.logActivity(ctx, messID, actorID, models.ActivityMonthUnlocked, uuid.Nil,
		fmt.Sprintf("unlocked %s", month))
	return nil
}
