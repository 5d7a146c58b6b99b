package slot

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

type Repository interface {
	// CreateIfAbsent inserts the slot unless (service, date, start time) already exists.
	CreateIfAbsent(ctx context.Context, s *Slot) (bool, error)
	ExistingStartTimes(ctx context.Context, serviceID uint, date string) (map[string]bool, error)
	GetByID(ctx context.Context, id uint) (*Slot, error)
	ListByServiceDate(ctx context.Context, serviceID uint, date string) ([]Slot, error)
	// SetClosed flips the administrative flag conditioned on the version the caller read.
	SetClosed(ctx context.Context, id uint, expectedVersion int, closed bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) CreateIfAbsent(ctx context.Context, s *Slot) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ExistingStartTimes(ctx context.Context, serviceID uint, date string) (map[string]bool, error) {
	var starts []string
	err := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("service_id = ? AND date = ?", serviceID, date).
		Pluck("start_time", &starts).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(starts))
	for _, s := range starts {
		out[s] = true
	}
	return out, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Slot, error) {
	var s Slot
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("slot %d", id)
	}
	if err != nil {
		return nil, err
	}
	return s.Refresh(), nil
}

func (r *repository) ListByServiceDate(ctx context.Context, serviceID uint, date string) ([]Slot, error) {
	var slots []Slot
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND date = ?", serviceID, date).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	for i := range slots {
		slots[i].Refresh()
	}
	return slots, nil
}

func (r *repository) SetClosed(ctx context.Context, id uint, expectedVersion int, closed bool) error {
	res := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"closed":  closed,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ConcurrentModification("slot %d is no longer at version %d", id, expectedVersion)
	}
	return nil
}
