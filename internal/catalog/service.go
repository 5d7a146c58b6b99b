package catalog

import (
	"context"

	"github.com/gosimple/slug"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
)

type Service interface {
	CreateService(ctx context.Context, def *ServiceDefinition, userID string) error
	UpdateService(ctx context.Context, id uint, patch ServicePatch, userID string) (*ServiceDefinition, error)
	DeactivateService(ctx context.Context, id uint, userID string) error
	ActivateService(ctx context.Context, id uint, userID string) error
	GetService(ctx context.Context, id uint) (*ServiceDefinition, error)
	ListActiveServices(ctx context.Context, entityID uint) ([]ServiceDefinition, error)
	ListServices(ctx context.Context, filter ServiceFilter) ([]ServiceDefinition, int64, error)
}

type service struct {
	repo  Repository
	audit auditlog.Recorder
}

func NewService(repo Repository, audit auditlog.Recorder) Service {
	return &service{repo: repo, audit: audit}
}

func (s *service) CreateService(ctx context.Context, def *ServiceDefinition, userID string) error {
	def.normalize()
	if err := def.Validate(); err != nil {
		s.audit.LogAction(ctx, userID, auditlog.ResourceService, 0, "SERVICE_CREATE_FAILED", map[string]interface{}{
			"name":  def.Name,
			"error": err.Error(),
		}, auditlog.StatusFailure)
		return err
	}

	def.ID = 0
	def.Code = slug.Make(def.Name)
	def.Revision = 1
	def.IsActive = true
	def.CreatedBy = userID
	def.UpdatedBy = userID

	if err := s.repo.Create(ctx, def); err != nil {
		return err
	}

	s.audit.LogAction(ctx, userID, auditlog.ResourceService, def.ID, "SERVICE_CREATED", map[string]interface{}{
		"name":     def.Name,
		"code":     def.Code,
		"capacity": def.Capacity,
		"price":    def.Price,
	}, auditlog.StatusSuccess)
	return nil
}

// UpdateService never touches slots already generated; they carry their own snapshot.
func (s *service) UpdateService(ctx context.Context, id uint, patch ServicePatch, userID string) (*ServiceDefinition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousRevision := def.Revision
	def.apply(patch)
	def.normalize()
	if err := def.Validate(); err != nil {
		s.audit.LogAction(ctx, userID, auditlog.ResourceService, id, "SERVICE_UPDATE_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, auditlog.StatusFailure)
		return nil, err
	}

	if patch.Name != nil {
		def.Code = slug.Make(def.Name)
	}
	def.Revision = previousRevision + 1
	def.UpdatedBy = userID

	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, userID, auditlog.ResourceService, id, "SERVICE_UPDATED", map[string]interface{}{
		"revision": def.Revision,
	}, auditlog.StatusSuccess)
	return def, nil
}

func (s *service) DeactivateService(ctx context.Context, id uint, userID string) error {
	return s.setActive(ctx, id, false, userID)
}

func (s *service) ActivateService(ctx context.Context, id uint, userID string) error {
	return s.setActive(ctx, id, true, userID)
}

func (s *service) setActive(ctx context.Context, id uint, active bool, userID string) error {
	if err := s.repo.SetActive(ctx, id, active, userID); err != nil {
		return err
	}
	action := "SERVICE_DEACTIVATED"
	if active {
		action = "SERVICE_ACTIVATED"
	}
	s.audit.LogAction(ctx, userID, auditlog.ResourceService, id, action, nil, auditlog.StatusSuccess)
	return nil
}

func (s *service) GetService(ctx context.Context, id uint) (*ServiceDefinition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListActiveServices(ctx context.Context, entityID uint) ([]ServiceDefinition, error) {
	return s.repo.ListActive(ctx, entityID)
}

func (s *service) ListServices(ctx context.Context, filter ServiceFilter) ([]ServiceDefinition, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		return nil, 0, apperrors.Validation("offset must not be negative")
	}
	return s.repo.List(ctx, filter)
}
