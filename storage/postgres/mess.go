package postgres

import (
	"context"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func (p *Postgres) CreateMess(ctx context.Context, mess *models.Mess, creator *models.MessMember) error {
	return translate(p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mess).Error; err != nil {
			return err
		}
		creator.MessID = mess.ID
		return tx.Create(creator).Error
	}))
}

func (p *Postgres) GetMess(ctx context.Context, id uuid.UUID) (*models.Mess, error) {
	var mess models.Mess
	if err := p.db.WithContext(ctx).First(&mess, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &mess, nil
}

func (p *Postgres) AddMember(ctx context.Context, member *models.MessMember) error {
	return translate(p.db.WithContext(ctx).Create(member).Error)
}

func (p *Postgres) GetMember(ctx context.Context, messID, userID uuid.UUID) (*models.MessMember, error) {
	var member models.MessMember
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND user_id = ?", messID, userID).
		First(&member).Error
	if err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// UpdateMemberStatus is guarded by the expected current status so two
// concurrent approvals cannot both report a transition.
func (p *Postgres) UpdateMemberStatus(ctx context.Context, messID, userID uuid.UUID, from, to string) error {
	res := p.db.WithContext(ctx).Model(&models.MessMember{}).
		Where("mess_id = ? AND user_id = ? AND status = ?", messID, userID, from).
		Update("status", to)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetMember(ctx, messID, userID); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return nil
}

func (p *Postgres) UpdateMemberRoles(ctx context.Context, messID, userID uuid.UUID, roles []string) error {
	res := p.db.WithContext(ctx).Model(&models.MessMember{}).
		Where("mess_id = ? AND user_id = ?", messID, userID).
		Update("roles", pq.StringArray(roles))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) RemoveMember(ctx context.Context, messID, userID uuid.UUID) error {
	res := p.db.WithContext(ctx).
		Where("mess_id = ? AND user_id = ?", messID, userID).
		Delete(&models.MessMember{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) ActiveMembers(ctx context.Context, messID uuid.UUID) ([]models.Member, error) {
	return p.Members(ctx, messID, models.MemberStatusActive)
}

func (p *Postgres) Members(ctx context.Context, messID uuid.UUID, status string) ([]models.Member, error) {
	query := p.db.WithContext(ctx).
		Preload("User").
		Where("mess_id = ?", messID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.MessMember
	if err := query.Order("joined_at, user_id").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	members := make([]models.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, models.Member{
			UserID:   row.UserID,
			Name:     row.User.Name,
			Roles:    row.Roles,
			Status:   row.Status,
			JoinedAt: row.JoinedAt,
		})
	}
	return members, nil
}
