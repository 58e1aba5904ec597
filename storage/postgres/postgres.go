// Package postgres implements the storage contract on GORM/Postgres.
package postgres

import (
	"context"
	"errors"
	"strings"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Postgres struct {
	db *gorm.DB
}

var _ storage.Store = (*Postgres)(nil)

func New(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	if strings.Contains(err.Error(), "duplicate key") {
		return storage.ErrDuplicate
	}
	return err
}

// Users

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	return translate(p.db.WithContext(ctx).Create(user).Error)
}

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
