package auditlog

import (
	"context"
	"encoding/json"
	"log"
	"math"

	"gorm.io/datatypes"
)

// Recorder is the write side every domain service depends on.
type Recorder interface {
	LogAction(ctx context.Context, userID, resource string, resourceID uint, action string, details map[string]interface{}, status string)
}

type Service interface {
	Recorder
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type ipKey struct{}

// ContextWithIP carries the caller IP down to LogAction.
func ContextWithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func IPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipKey{}).(string); ok {
		return ip
	}
	return ""
}

// LogAction creates a new audit log entry. Write failures are logged, never returned:
// the audited operation has already happened.
func (s *service) LogAction(ctx context.Context, userID, resource string, resourceID uint, action string, details map[string]interface{}, status string) {
	if details == nil {
		details = make(map[string]interface{})
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := &AuditLog{
		UserID:     userID,
		Resource:   resource,
		ResourceID: resourceID,
		Action:     action,
		Details:    datatypes.JSON(detailsJSON),
		IPAddress:  IPFromContext(ctx),
		Status:     status,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ audit log write failed for %s %s/%d: %v", action, resource, resourceID, err)
	}
}

// GetAuditLogs retrieves paginated audit logs with filters
func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}
