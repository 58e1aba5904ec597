package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/storage"
)

// MessService manages messes and their rosters. Membership changes bump the
// mess-wide roster version, which invalidates every month's cached summary
// at once since equal splits depend on who is active.
type MessService struct {
	store  storage.Store
	cache  SummaryCache
	notify *NotificationService
}

func NewMessService(store storage.Store, cache SummaryCache, notify *NotificationService) *MessService {
	return &MessService{store: store, cache: cache, notify: notify}
}

func (s *MessService) invalidateRoster(ctx context.Context, messID uuid.UUID) {
	if err := s.cache.InvalidateMess(ctx, messID); err != nil {
		log.Printf("⚠️  roster invalidation failed for %s: %v", messID, err)
	}
}

func (s *MessService) activeManager(ctx context.Context, messID, userID uuid.UUID) (*models.MessMember, error) {
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
	if !member.IsManager() {
		return nil, fmt.Errorf("%w: manager role required", ErrPermissionDenied)
	}
	return member, nil
}

// CreateMess creates a mess with the creator as its first active member,
// holding both admin and manager roles.
func (s *MessService) CreateMess(ctx context.Context, creatorID uuid.UUID, req models.CreateMessRequest) (*models.Mess, error) {
	mess := &models.Mess{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedBy: creatorID,
	}
	creator := &models.MessMember{
		MessID: mess.ID,
		UserID: creatorID,
		Roles:  []string{models.RoleAdmin, models.RoleManager},
		Status: models.MemberStatusActive,
	}
	if err := s.store.CreateMess(ctx, mess, creator); err != nil {
		return nil, err
	}
	return mess, nil
}

// GetMessDetails returns the mess with its full roster.
func (s *MessService) GetMessDetails(ctx context.Context, messID, actorID uuid.UUID) (*models.MessResponse, error) {
	mess, err := s.store.GetMess(ctx, messID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetMember(ctx, messID, actorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member of this mess", ErrPermissionDenied)
		}
		return nil, err
	}

	members, err := s.store.Members(ctx, messID, "")
	if err != nil {
		return nil, err
	}
	return &models.MessResponse{
		ID:        mess.ID,
		Name:      mess.Name,
		CreatedBy: mess.CreatedBy,
		Members:   members,
		CreatedAt: mess.CreatedAt,
	}, nil
}

// RequestJoin files a pending membership. The user only joins splits after a
// manager approves.
func (s *MessService) RequestJoin(ctx context.Context, messID, userID uuid.UUID) error {
	if _, err := s.store.GetMess(ctx, messID); err != nil {
		return err
	}
	if existing, err := s.store.GetMember(ctx, messID, userID); err == nil {
		if existing.Status == models.MemberStatusActive {
			return fmt.Errorf("%w: already a member", ErrValidation)
		}
		return nil // pending request already on file
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	member := &models.MessMember{
		MessID: messID,
		UserID: userID,
		Roles:  []string{models.RoleMember},
		Status: models.MemberStatusPending,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return err
	}

	activity := &models.Activity{
		MessID: messID, UserID: userID,
		Type: models.ActivityMemberJoined, Description: "requested to join",
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
	return nil
}

// ApproveMember activates a pending membership. Manager only; from the
// moment this returns, the member participates in every month's equal split
// (joining mid-month grants no proration).
func (s *MessService) ApproveMember(ctx context.Context, messID, actorID, userID uuid.UUID) error {
	if _, err := s.activeManager(ctx, messID, actorID); err != nil {
		return err
	}

	if err := s.store.UpdateMemberStatus(ctx, messID, userID, models.MemberStatusPending, models.MemberStatusActive); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, ferr := s.store.GetMember(ctx, messID, userID)
			if ferr == nil && current.Status == models.MemberStatusActive {
				return nil // someone else approved first
			}
			return ErrConcurrentModification
		}
		return err
	}

	s.invalidateRoster(ctx, messID)

	activity := &models.Activity{
		MessID: messID, UserID: actorID,
		Type: models.ActivityMemberActive, ReferenceID: userID,
		Description: "approved a member",
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
	if user, err := s.store.GetUser(ctx, userID); err == nil {
		if mess, merr := s.store.GetMess(ctx, messID); merr == nil {
			go s.notify.MemberApproved(*user, mess.Name)
		}
	}
	return nil
}

// AssignRole grants an additional role. Admin only.
func (s *MessService) AssignRole(ctx context.Context, messID, actorID, userID uuid.UUID, role string) error {
	actor, err := s.activeManager(ctx, messID, actorID)
	if err != nil {
		return err
	}
	if !actor.HasRole(models.RoleAdmin) {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}

	target, err := s.store.GetMember(ctx, messID, userID)
	if err != nil {
		return err
	}
	if target.HasRole(role) {
		return nil
	}
	roles := append([]string(target.Roles), role)
	if err := s.store.UpdateMemberRoles(ctx, messID, userID, roles); err != nil {
		return err
	}

	activity := &models.Activity{
		MessID: messID, UserID: actorID,
		Type: models.ActivityRoleChanged, ReferenceID: userID,
		Description: fmt.Sprintf("granted %s role", role),
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
	return nil
}

// RemoveRole revokes a role. Admin only; the last admin keeps their role so
// the mess never goes unmanageable.
func (s *MessService) RemoveRole(ctx context.Context, messID, actorID, userID uuid.UUID, role string) error {
	actor, err := s.activeManager(ctx, messID, actorID)
	if err != nil {
		return err
	}
	if !actor.HasRole(models.RoleAdmin) {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}

	target, err := s.store.GetMember(ctx, messID, userID)
	if err != nil {
		return err
	}
	if !target.HasRole(role) {
		return nil
	}
	if role == models.RoleAdmin && actorID == userID {
		return fmt.Errorf("%w: cannot revoke your own admin role", ErrValidation)
	}

	roles := make([]string, 0, len(target.Roles))
	for _, r := range target.Roles {
		if r != role {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []string{models.RoleMember}
	}
	if err := s.store.UpdateMemberRoles(ctx, messID, userID, roles); err != nil {
		return err
	}

	activity := &models.Activity{
		MessID: messID, UserID: actorID,
		Type: models.ActivityRoleChanged, ReferenceID: userID,
		Description: fmt.Sprintf("revoked %s role", role),
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
	return nil
}

// RemoveMember drops a membership. Admins may remove anyone else; any member
// may leave on their own. Past months still include the member's recorded
// meals, bazar and payments; only future rosters shrink.
func (s *MessService) RemoveMember(ctx context.Context, messID, actorID, userID uuid.UUID) error {
	if _, err := s.store.GetMess(ctx, messID); err != nil {
		return err
	}
	actor, err := s.store.GetMember(ctx, messID, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: not a member of this mess", ErrPermissionDenied)
		}
		return err
	}
	if actorID != userID && !actor.HasRole(models.RoleAdmin) {
		return fmt.Errorf("%w: admin role required to remove others", ErrPermissionDenied)
	}

	target, err := s.store.GetMember(ctx, messID, userID)
	if err != nil {
		return err
	}
	wasActive := target.Status == models.MemberStatusActive

	if err := s.store.RemoveMember(ctx, messID, userID); err != nil {
		return err
	}
	if wasActive {
		s.invalidateRoster(ctx, messID)
	}

	activity := &models.Activity{
		MessID: messID, UserID: actorID,
		Type: models.ActivityMemberLeft, ReferenceID: userID,
		Description: "member removed",
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("⚠️  activity log failed: %v", err)
	}
	return nil
}

// PendingRequests lists join requests awaiting approval. Manager only.
func (s *MessService) PendingRequests(ctx context.Context, messID, actorID uuid.UUID) ([]models.Member, error) {
	if _, err := s.activeManager(ctx, messID, actorID); err != nil {
		return nil, err
	}
	return s.store.Members(ctx, messID, models.MemberStatusPending)
}

// ListActivity returns the mess audit feed, newest first.
func (s *MessService) ListActivity(ctx context.Context, messID, actorID uuid.UUID, limit, offset int) ([]models.Activity, error) {
	if _, err := s.store.GetMess(ctx, messID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetMember(ctx, messID, actorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member of this mess", ErrPermissionDenied)
		}
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListActivity(ctx, messID, limit, offset)
}
