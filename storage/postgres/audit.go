package postgres

import (
	"context"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
)

// Invitations

func (p *Postgres) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	return translate(p.db.WithContext(ctx).Create(inv).Error)
}

func (p *Postgres) PendingInvitation(ctx context.Context, messID uuid.UUID, email string) (*models.Invitation, error) {
	var inv models.Invitation
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND email = ? AND status = ?", messID, email, models.InvitationPending).
		First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (p *Postgres) PendingInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := p.db.WithContext(ctx).
		Where("email = ? AND status = ?", email, models.InvitationPending).
		Find(&invs).Error
	if err != nil {
		return nil, translate(err)
	}
	return invs, nil
}

func (p *Postgres) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := p.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Activity feed

func (p *Postgres) CreateActivity(ctx context.Context, activity *models.Activity) error {
	return translate(p.db.WithContext(ctx).Create(activity).Error)
}

func (p *Postgres) ListActivity(ctx context.Context, messID uuid.UUID, limit, offset int) ([]models.Activity, error) {
	var activities []models.Activity
	err := p.db.WithContext(ctx).
		Where("mess_id = ?", messID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	if err != nil {
		return nil, translate(err)
	}
	return activities, nil
}
