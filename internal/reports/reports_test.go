package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/settlement"
	"github.com/sharath018/seva-counter-backend/middleware"
)

func sample(n int) []booking.Booking {
	out := make([]booking.Booking, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, booking.Booking{
			ReceiptNumber: booking.FormatReceipt(i + 1),
			CounterID:     "C1",
			BusinessDate:  "2026-10-16",
			Shift:         "MORNING",
			ServiceName:   "Archana",
			SlotDate:      "2026-10-16",
			StartTime:     "18:00",
			EndTime:       "19:00",
			Devotee:       booking.Devotee{Name: "Devotee", PartySize: 2},
			BookingType:   booking.TypePreBooked,
			Status:        booking.StatusCollected,
			Payment: booking.Payment{
				AmountDue:  250,
				Mode:       booking.ModeCash,
				CashAmount: 250,
				Status:     booking.PaymentCollected,
			},
		})
	}
	return out
}

type pagedLister struct {
	all   []booking.Booking
	calls []booking.Filter
}

func (p *pagedLister) ListBookings(_ context.Context, f booking.Filter) ([]booking.Booking, int64, error) {
	p.calls = append(p.calls, f)
	end := f.Offset + f.Limit
	if end > len(p.all) {
		end = len(p.all)
	}
	if f.Offset >= len(p.all) {
		return nil, int64(len(p.all)), nil
	}
	return p.all[f.Offset:end], int64(len(p.all)), nil
}

type nopAudit struct{}

func (nopAudit) LogAction(context.Context, string, string, uint, string, map[string]interface{}, string) {
}

func TestGetDateRange(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)

	from, to, err := GetDateRange(now, DateRangeWeekly, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-10", from)
	assert.Equal(t, "2026-10-16", to)

	from, to, err = GetDateRange(now, DateRangeMonthly, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", from)
	assert.Equal(t, "2026-10-31", to)

	_, _, err = GetDateRange(now, DateRangeCustom, "2026-10-20", "2026-10-01")
	assert.Error(t, err)
	_, _, err = GetDateRange(now, DateRangeCustom, "", "")
	assert.Error(t, err)
}

func TestGetBookingsPagesThroughLedger(t *testing.T) {
	lister := &pagedLister{all: sample(230)}
	svc := NewReportService(lister, NewExporter("Sri Temple", time.UTC), nopAudit{})

	rows, err := svc.GetBookings(context.Background(), BookingReportRequest{DateRange: DateRangeDaily, Shift: "morning"})
	require.NoError(t, err)
	assert.Len(t, rows, 230)
	assert.Len(t, lister.calls, 3)
	assert.Equal(t, "MORNING", lister.calls[0].Shift)
	assert.Equal(t, lister.calls[0].FromDate, lister.calls[0].ToDate)
}

func TestExportBookingsCSV(t *testing.T) {
	svc := NewReportService(&pagedLister{all: sample(2)}, NewExporter("Sri Temple", time.UTC), nopAudit{})

	data, filename, contentType, err := svc.ExportBookings(context.Background(), BookingReportRequest{Format: FormatCSV}, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Receipt", records[0][0])
	assert.Equal(t, "000002", records[2][0])
	assert.Equal(t, "250.00", records[1][14])

	_, _, _, err = svc.ExportBookings(context.Background(), BookingReportRequest{Format: "docx"}, "sup-1")
	assert.Error(t, err)
}

func TestSettlementWorkbook(t *testing.T) {
	count := 11950.0
	st := &settlement.CounterSettlement{
		CounterID:         "C1",
		BusinessDate:      "2026-10-16",
		Shift:             "MORNING",
		SystemCashTotal:   12000,
		UPITotal:          8000,
		DigitalTotal:      8000,
		TotalRevenue:      20000,
		PhysicalCashCount: &count,
		Variance:          -50,
		LossEstimator:     "mean",
	}

	data, err := NewExporter("Sri Temple", time.UTC).SettlementWorkbook(st, sample(3))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Settlement", "Bookings"}, f.GetSheetList())
	label, _ := f.GetCellValue("Settlement", "A11")
	value, _ := f.GetCellValue("Settlement", "B11")
	assert.Equal(t, "Total Revenue", label)
	assert.Equal(t, "20000", value)

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRenderReceipt(t *testing.T) {
	b := sample(1)[0]
	b.AuditTrail = []booking.AuditEntry{{Action: booking.ActionCreated}, {Action: booking.ActionReprint}}

	data, err := NewExporter("Sri Temple", time.UTC).RenderReceipt(&b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestHandlerScopesCounterStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lister := &pagedLister{all: sample(1)}
	h := NewHandler(NewReportService(lister, NewExporter("Sri Temple", time.UTC), nopAudit{}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("access_context", middleware.AccessContext{UserID: "staff-1", RoleName: middleware.RoleCounterStaff, CounterID: "C7"})
		c.Next()
	})
	r.GET("/reports/bookings", h.GetBookingsReport)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/bookings?counter_id=C1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "total").Int())
	assert.Equal(t, "C7", lister.calls[0].CounterID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/bookings?date_range=custom", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/bookings?format=excel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
}
