package settlement

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

type Repository interface {
	Create(ctx context.Context, s *CounterSettlement) error
	// Refresh rewrites the ledger figures of a settlement still in status from.
	Refresh(ctx context.Context, s *CounterSettlement, from string) error
	GetByID(ctx context.Context, id uint) (*CounterSettlement, error)
	GetByScope(ctx context.Context, counterID, businessDate, shift string) (*CounterSettlement, error)
	List(ctx context.Context, filter Filter) ([]CounterSettlement, int64, error)
	IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, s *CounterSettlement) error {
	return r.db.WithContext(ctx).Create(s).Error
}

var refreshColumns = []string{
	"counter_name",
	"opening_balance",
	"closing_balance",
	"system_cash_total",
	"upi_total",
	"card_total",
	"digital_total",
	"physical_cash_count",
	"variance",
	"bookings_count",
	"cash_bookings",
	"digital_bookings",
	"cancelled_count",
	"total_revenue",
	"target_revenue",
	"achievement_percentage",
	"no_show_count",
	"no_show_revenue_loss",
	"loss_estimator",
	"status",
	"is_locked",
	"built_by",
	"submitted_by",
	"submitted_at",
	"locked_by",
	"locked_at",
	"updated_at",
}

func (r *repository) Refresh(ctx context.Context, s *CounterSettlement, from string) error {
	res := r.db.WithContext(ctx).Model(&CounterSettlement{}).
		Where("id = ? AND status = ?", s.ID, from).
		Select(refreshColumns).
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ConcurrentModification("settlement %d is no longer %s", s.ID, from)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*CounterSettlement, error) {
	var s CounterSettlement
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("settlement %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetByScope(ctx context.Context, counterID, businessDate, shift string) (*CounterSettlement, error) {
	var s CounterSettlement
	err := r.db.WithContext(ctx).
		Where("counter_id = ? AND business_date = ? AND shift = ?", counterID, businessDate, shift).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("settlement %s %s %s", counterID, businessDate, shift)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]CounterSettlement, int64, error) {
	var (
		out   []CounterSettlement
		total int64
	)
	query := r.db.WithContext(ctx).Model(&CounterSettlement{})
	if filter.CounterID != "" {
		query = query.Where("counter_id = ?", filter.CounterID)
	}
	if filter.FromDate != "" {
		query = query.Where("business_date >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		query = query.Where("business_date <= ?", filter.ToDate)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("business_date DESC, counter_id, shift").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&out).Error
	return out, total, err
}

func (r *repository) IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CounterSettlement{}).
		Where("counter_id = ? AND business_date = ? AND shift = ? AND is_locked = ?", counterID, businessDate, shift, true).
		Count(&n).Error
	return n > 0, err
}
