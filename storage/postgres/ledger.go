package postgres

import (
	"context"
	"database/sql"
	"errors"

	"mess-backend/models"
	"mess-backend/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Meal logs

func (p *Postgres) UpsertMealLog(ctx context.Context, meal *models.MealLog) error {
	return translate(p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mess_id"}, {Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"meal_count", "month"}),
	}).Create(meal).Error)
}

func (p *Postgres) ListMealLogs(ctx context.Context, messID uuid.UUID, month string) ([]models.MealLog, error) {
	var meals []models.MealLog
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND month = ?", messID, month).
		Order("date, user_id").
		Find(&meals).Error
	if err != nil {
		return nil, translate(err)
	}
	return meals, nil
}

// LoadMonth reads the roster and all four ledgers inside one read-only
// transaction, so a write landing mid-read cannot produce a mixed-state
// snapshot.
func (p *Postgres) LoadMonth(ctx context.Context, messID uuid.UUID, month string) (*storage.MonthRecords, error) {
	var rec storage.MonthRecords
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &Postgres{db: tx}
		var err error
		if rec.Roster, err = s.ActiveMembers(ctx, messID); err != nil {
			return err
		}
		if rec.Costs, err = s.ListServiceCosts(ctx, messID, month, storage.StatusAny); err != nil {
			return err
		}
		if rec.Bazar, err = s.ListBazarEntries(ctx, messID, month); err != nil {
			return err
		}
		if rec.Meals, err = s.ListMealLogs(ctx, messID, month); err != nil {
			return err
		}
		rec.Payments, err = s.ListPayments(ctx, messID, month)
		return err
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Payments

func (p *Postgres) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return translate(p.db.WithContext(ctx).Create(payment).Error)
}

func (p *Postgres) ListPayments(ctx context.Context, messID uuid.UUID, month string) ([]models.Payment, error) {
	var payments []models.Payment
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND month = ?", messID, month).
		Order("created_at").
		Find(&payments).Error
	if err != nil {
		return nil, translate(err)
	}
	return payments, nil
}

// Month locks

func (p *Postgres) GetMonthLock(ctx context.Context, messID uuid.UUID, month string) (*models.MonthLock, error) {
	var lock models.MonthLock
	err := p.db.WithContext(ctx).
		Where("mess_id = ? AND month = ?", messID, month).
		First(&lock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &lock, nil
}

func (p *Postgres) PutMonthLock(ctx context.Context, lock *models.MonthLock) error {
	return translate(p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mess_id"}, {Name: "month"}},
		DoNothing: true,
	}).Create(lock).Error)
}

func (p *Postgres) DeleteMonthLock(ctx context.Context, messID uuid.UUID, month string) error {
	res := p.db.WithContext(ctx).
		Where("mess_id = ? AND month = ?", messID, month).
		Delete(&models.MonthLock{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
