package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

type Repository interface {
	Create(ctx context.Context, def *ServiceDefinition) error
	GetByID(ctx context.Context, id uint) (*ServiceDefinition, error)
	Update(ctx context.Context, def *ServiceDefinition) error
	SetActive(ctx context.Context, id uint, active bool, by string) error
	ListActive(ctx context.Context, entityID uint) ([]ServiceDefinition, error)
	List(ctx context.Context, filter ServiceFilter) ([]ServiceDefinition, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, def *ServiceDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*ServiceDefinition, error) {
	var def ServiceDefinition
	err := r.db.WithContext(ctx).First(&def, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("service %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *repository) Update(ctx context.Context, def *ServiceDefinition) error {
	return r.db.WithContext(ctx).Save(def).Error
}

func (r *repository) SetActive(ctx context.Context, id uint, active bool, by string) error {
	res := r.db.WithContext(ctx).
		Model(&ServiceDefinition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("service %d", id)
	}
	return nil
}

// ListActive returns every active service, optionally scoped to one entity (0 = all).
func (r *repository) ListActive(ctx context.Context, entityID uint) ([]ServiceDefinition, error) {
	var defs []ServiceDefinition
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if entityID != 0 {
		query = query.Where("entity_id = ?", entityID)
	}
	err := query.Order("name ASC").Find(&defs).Error
	return defs, err
}

func (r *repository) List(ctx context.Context, filter ServiceFilter) ([]ServiceDefinition, int64, error) {
	var defs []ServiceDefinition
	var total int64

	query := r.db.WithContext(ctx).Model(&ServiceDefinition{})
	if filter.EntityID != 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR localized_name ILIKE ? OR code ILIKE ?", like, like, like)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("name ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&defs).Error
	return defs, total, err
}
