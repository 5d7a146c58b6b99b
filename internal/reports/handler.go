package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/middleware"
)

type Handler struct {
	service ReportService
}

func NewHandler(svc ReportService) *Handler {
	return &Handler{service: svc}
}

// GetBookingsReport godoc
// @Summary Booking report as JSON or a file
// @Description Without format the rows are returned as JSON; format=excel|csv|pdf downloads a file.
// @Tags Reports
// @Produce json
// @Param counter_id query string false "counter"
// @Param shift query string false "shift"
// @Param status query string false "booking status"
// @Param booking_type query string false "WALK_IN or PRE_BOOKED"
// @Param date_range query string false "daily|weekly|monthly|yearly|custom (default weekly)"
// @Param start_date query string false "YYYY-MM-DD for custom"
// @Param end_date query string false "YYYY-MM-DD for custom"
// @Param format query string false "excel|csv|pdf"
// @Success 200 {array} BookingReportRow
// @Router /api/v1/reports/bookings [get]
func (h *Handler) GetBookingsReport(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	req := BookingReportRequest{
		CounterID:   c.Query("counter_id"),
		Shift:       c.Query("shift"),
		Status:      c.Query("status"),
		BookingType: c.Query("booking_type"),
		DateRange:   c.DefaultQuery("date_range", DateRangeWeekly),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		Format:      c.Query("format"),
	}
	// counter staff only see their own counter
	if accessContext.CounterID != "" && !accessContext.CanApprove() {
		req.CounterID = accessContext.CounterID
	}

	if req.Format == "" {
		rows, err := h.service.GetBookings(c.Request.Context(), req)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "total": len(rows)})
		return
	}

	data, filename, contentType, err := h.service.ExportBookings(c.Request.Context(), req, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
