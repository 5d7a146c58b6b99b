package settlement

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/middleware"
)

// WorkbookExporter renders a settlement and its bookings as a spreadsheet.
type WorkbookExporter interface {
	SettlementWorkbook(s *CounterSettlement, bookings []booking.Booking) ([]byte, error)
}

type Handler struct {
	service  Service
	exporter WorkbookExporter
}

func NewHandler(service Service, exporter WorkbookExporter) *Handler {
	return &Handler{service: service, exporter: exporter}
}

type BuildRequest struct {
	CounterID      string   `json:"counter_id"`
	CounterName    string   `json:"counter_name"`
	BusinessDate   string   `json:"business_date" binding:"required"`
	Shift          string   `json:"shift" binding:"required"`
	OpeningBalance float64  `json:"opening_balance" binding:"gte=0"`
	TargetRevenue  *float64 `json:"target_revenue"`
}

type SubmitRequest struct {
	PhysicalCashCount *float64 `json:"physical_cash_count" binding:"required"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settlement id"})
		return 0, false
	}
	return uint(id), true
}

// BuildSettlement godoc
// @Summary Build or rebuild the DRAFT settlement of a counter shift
// @Tags Settlements
// @Accept json
// @Produce json
// @Param body body BuildRequest true "scope"
// @Success 200 {object} CounterSettlement
// @Failure 409 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /api/v1/settlements [post]
func (h *Handler) BuildSettlement(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// counter staff settle only their own counter
	counterID := req.CounterID
	if accessContext.CounterID != "" && !accessContext.CanApprove() {
		if counterID != "" && counterID != accessContext.CounterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is bound to counter " + accessContext.CounterID})
			return
		}
		counterID = accessContext.CounterID
	}
	if counterID == "" {
		counterID = accessContext.CounterID
	}

	st, err := h.service.BuildSettlement(c.Request.Context(), BuildInput{
		CounterID:      counterID,
		CounterName:    req.CounterName,
		BusinessDate:   req.BusinessDate,
		Shift:          req.Shift,
		OpeningBalance: req.OpeningBalance,
		TargetRevenue:  req.TargetRevenue,
		UserID:         accessContext.UserID,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SubmitSettlement godoc
// @Summary Submit the physical cash count of a DRAFT settlement
// @Tags Settlements
// @Accept json
// @Produce json
// @Param id path int true "settlement id"
// @Param body body SubmitRequest true "cash count"
// @Success 200 {object} CounterSettlement
// @Router /api/v1/settlements/{id}/submit [post]
func (h *Handler) SubmitSettlement(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	st, err := h.service.SubmitSettlement(c.Request.Context(), id, *req.PhysicalCashCount, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// LockSettlement godoc
// @Summary Lock a SUBMITTED settlement (supervisor or temple admin)
// @Tags Settlements
// @Produce json
// @Param id path int true "settlement id"
// @Success 200 {object} CounterSettlement
// @Router /api/v1/settlements/{id}/lock [post]
func (h *Handler) LockSettlement(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	st, err := h.service.LockSettlement(c.Request.Context(), id, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetSettlement godoc
// @Summary Get a settlement
// @Tags Settlements
// @Produce json
// @Param id path int true "settlement id"
// @Success 200 {object} CounterSettlement
// @Router /api/v1/settlements/{id} [get]
func (h *Handler) GetSettlement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	st, err := h.service.GetSettlement(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListSettlements godoc
// @Summary List settlements
// @Tags Settlements
// @Produce json
// @Param counter_id query string false "counter"
// @Param from_date query string false "YYYY-MM-DD"
// @Param to_date query string false "YYYY-MM-DD"
// @Param status query string false "DRAFT, SUBMITTED or LOCKED"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/settlements [get]
func (h *Handler) ListSettlements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	list, total, err := h.service.ListSettlements(c.Request.Context(), Filter{
		CounterID: c.Query("counter_id"),
		FromDate:  c.Query("from_date"),
		ToDate:    c.Query("to_date"),
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ExportSettlement godoc
// @Summary Download a settlement with its bookings as XLSX
// @Tags Settlements
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "settlement id"
// @Success 200 {file} file
// @Router /api/v1/settlements/{id}/export [get]
func (h *Handler) ExportSettlement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	st, scope, err := h.service.ScopeBookings(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	data, err := h.exporter.SettlementWorkbook(st, scope)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	filename := fmt.Sprintf("settlement_%s_%s_%s.xlsx", st.CounterID, st.BusinessDate, st.Shift)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
