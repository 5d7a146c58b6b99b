package auditlog

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, log *AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByFilter returns one page of matching rows, newest first, plus the total match count.
func (r *repository) GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&AuditLog{}).Scopes(matching(filter))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []AuditLog
	err := base.Scopes(page(filter.Page, filter.Limit)).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func matching(f AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		for _, eq := range [][2]string{{"user_id", f.UserID}, {"resource", f.Resource}, {"status", f.Status}} {
			if eq[1] != "" {
				q = q.Where(eq[0]+" = ?", eq[1])
			}
		}
		if f.ResourceID != nil {
			q = q.Where("resource_id = ?", *f.ResourceID)
		}
		if f.Action != "" {
			q = q.Where("action ILIKE ?", "%"+f.Action+"%")
		}
		if f.FromDate != nil {
			q = q.Where("created_at >= ?", *f.FromDate)
		}
		if f.ToDate != nil {
			q = q.Where("created_at < ?", *f.ToDate)
		}
		return q
	}
}

func page(n, size int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if n < 1 {
			n = 1
		}
		return q.Offset((n - 1) * size).Limit(size)
	}
}
