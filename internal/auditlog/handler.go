package auditlog

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type auditQuery struct {
	UserID     string `form:"user_id"`
	Resource   string `form:"resource"`
	ResourceID *uint  `form:"resource_id"`
	Action     string `form:"action"`
	Status     string `form:"status"`
	FromDate   string `form:"from_date"`
	ToDate     string `form:"to_date"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// toFilter converts query dates (YYYY-MM-DD, inclusive) into a half-open instant range.
func (q auditQuery) toFilter() (AuditLogFilter, error) {
	f := AuditLogFilter{
		UserID:     q.UserID,
		Resource:   q.Resource,
		ResourceID: q.ResourceID,
		Action:     q.Action,
		Status:     q.Status,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	if q.FromDate != "" {
		d, err := time.Parse("2006-01-02", q.FromDate)
		if err != nil {
			return f, apperrors.Validation("from_date must be YYYY-MM-DD")
		}
		f.FromDate = &d
	}
	if q.ToDate != "" {
		d, err := time.Parse("2006-01-02", q.ToDate)
		if err != nil {
			return f, apperrors.Validation("to_date must be YYYY-MM-DD")
		}
		next := d.AddDate(0, 0, 1)
		f.ToDate = &next
	}
	return f, nil
}

// GetAuditLogs handles GET /auditlogs
// @Summary Get audit logs
// @Description Operational audit trail of catalog, slot, booking and settlement actions (templeadmin only)
// @Tags AuditLog
// @Produce json
// @Param user_id query string false "Filter by user ID"
// @Param resource query string false "service, slot, booking or settlement"
// @Param resource_id query uint false "Filter by resource ID"
// @Param action query string false "Partial action match"
// @Param status query string false "success or failure"
// @Param from_date query string false "YYYY-MM-DD"
// @Param to_date query string false "YYYY-MM-DD, inclusive"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20, max 100)"
// @Success 200 {object} PaginatedAuditLogs
// @Failure 400 {object} map[string]string
// @Router /api/v1/auditlogs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error(), "code": apperrors.Code(err)})
		return
	}

	result, err := h.service.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve audit logs", "code": apperrors.Code(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}
