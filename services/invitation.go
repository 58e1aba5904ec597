package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/storage"
)

// Invite adds a user by email. Manager only. A registered user becomes an
// active member immediately; an unknown address gets an invitation row and
// an email, redeemed automatically when they register.
func (s *MessService) Invite(ctx context.Context, messID, actorID uuid.UUID, email string) error {
	actor, err := s.activeManager(ctx, messID, actorID)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	mess, err := s.store.GetMess(ctx, messID)
	if err != nil {
		return err
	}
	inviter, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing, merr := s.store.GetMember(ctx, messID, user.ID); merr == nil {
			if existing.Status == models.MemberStatusActive {
				return fmt.Errorf("%w: already a member", ErrValidation)
			}
			// pending join request: the invite doubles as approval
			if uerr := s.store.UpdateMemberStatus(ctx, messID, user.ID, models.MemberStatusPending, models.MemberStatusActive); uerr != nil {
				if errors.Is(uerr, storage.ErrConflict) {
					return nil
				}
				return uerr
			}
		} else if !errors.Is(merr, storage.ErrNotFound) {
			return merr
		} else {
			member := &models.MessMember{
				MessID: messID,
				UserID: user.ID,
				Roles:  []string{models.RoleMember},
				Status: models.MemberStatusActive,
			}
			if aerr := s.store.AddMember(ctx, member); aerr != nil && !errors.Is(aerr, storage.ErrDuplicate) {
				return aerr
			}
		}
		s.invalidateRoster(ctx, messID)
		go s.notify.MemberApproved(*user, mess.Name)
		return nil

	case errors.Is(err, storage.ErrNotFound):
		if _, perr := s.store.PendingInvitation(ctx, messID, email); perr == nil {
			return nil // already invited
		} else if !errors.Is(perr, storage.ErrNotFound) {
			return perr
		}
		inv := &models.Invitation{
			MessID:    messID,
			InvitedBy: actorID,
			Email:     email,
			Status:    models.InvitationPending,
		}
		if cerr := s.store.CreateInvitation(ctx, inv); cerr != nil {
			return cerr
		}
		go s.notify.InvitationEmail(email, inviter.Name, mess.Name)
		return nil

	default:
		return err
	}
}

// AcceptPendingInvitations redeems every open invitation for a freshly
// registered user, making them an active member of each inviting mess.
// Called async after registration; failures are logged, not surfaced.
func (s *MessService) AcceptPendingInvitations(ctx context.Context, user *models.User) {
	invs, err := s.store.PendingInvitationsByEmail(ctx, strings.ToLower(user.Email))
	if err != nil {
		log.Printf("⚠️  invitation lookup failed for %s: %v", user.Email, err)
		return
	}

	for _, inv := range invs {
		member := &models.MessMember{
			MessID: inv.MessID,
			UserID: user.ID,
			Roles:  []string{models.RoleMember},
			Status: models.MemberStatusActive,
		}
		if err := s.store.AddMember(ctx, member); err != nil && !errors.Is(err, storage.ErrDuplicate) {
			log.Printf("⚠️  invitation redemption failed for mess %s: %v", inv.MessID, err)
			continue
		}
		if err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationAccepted); err != nil {
			log.Printf("⚠️  invitation status update failed: %v", err)
		}
		s.invalidateRoster(ctx, inv.MessID)

		activity := &models.Activity{
			MessID: inv.MessID, UserID: user.ID,
			Type: models.ActivityMemberActive, Description: "joined via invitation",
		}
		if err := s.store.CreateActivity(ctx, activity); err != nil {
			log.Printf("⚠️  activity log failed: %v", err)
		}
	}
}
