package postgres

import (
	"context"
	"time"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
)

// Service costs

func (p *Postgres) CreateServiceCost(ctx context.Context, cost *models.ServiceCost) error {
	return translate(p.db.WithContext(ctx).Create(cost).Error)
}

func (p *Postgres) GetServiceCost(ctx context.Context, id uuid.UUID) (*models.ServiceCost, error) {
	var cost models.ServiceCost
	if err := p.db.WithContext(ctx).First(&cost, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cost, nil
}

func (p *Postgres) ListServiceCosts(ctx context.Context, messID uuid.UUID, month, status string) ([]models.ServiceCost, error) {
	query := p.db.WithContext(ctx).Where("mess_id = ? AND month = ?", messID, month)
	if status != storage.StatusAny {
		query = query.Where("status = ?", status)
	}

	var costs []models.ServiceCost
	if err := query.Order("created_at").Find(&costs).Error; err != nil {
		return nil, translate(err)
	}
	return costs, nil
}

// SetServiceCostStatus transitions status atomically: the UPDATE only fires
// when the row still holds the expected state, so lost transitions surface
// as ErrConflict instead of silently overwriting.
func (p *Postgres) SetServiceCostStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res := p.db.WithContext(ctx).Model(&models.ServiceCost{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetServiceCost(ctx, id); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return nil
}

func (p *Postgres) DeleteServiceCost(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Delete(&models.ServiceCost{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Bazar entries

func (p *Postgres) CreateBazarEntry(ctx context.Context, entry *models.BazarEntry) error {
	return translate(p.db.WithContext(ctx).Create(entry).Error)
}

func (p *Postgres) GetBazarEntry(ctx context.Context, id uuid.UUID) (*models.BazarEntry, error) {
	var entry models.BazarEntry
	if err := p.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (p *Postgres) ListBazarEntries(ctx context.Context, messID uuid.UUID, month string) ([]models.BazarEntry, error) {
	var entries []models.BazarEntry
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND month = ?", messID, month).
		Order("date, created_at").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

// UpdateBazarEntry applies updates only if updated_at still matches the
// token the caller read, the optimistic-concurrency check.
func (p *Postgres) UpdateBazarEntry(ctx context.Context, id uuid.UUID, expectedUpdatedAt time.Time, updates map[string]interface{}) error {
	res := p.db.WithContext(ctx).Model(&models.BazarEntry{}).
		Where("id = ? AND updated_at = ?", id, expectedUpdatedAt).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetBazarEntry(ctx, id); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return nil
}

func (p *Postgres) SetBazarStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res := p.db.WithContext(ctx).Model(&models.BazarEntry{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetBazarEntry(ctx, id); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return nil
}

func (p *Postgres) DeleteBazarEntry(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Delete(&models.BazarEntry{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
