package reports

import (
	"context"
	"strings"
	"time"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/booking"
)

// BookingLister is the ledger query the reports page through.
type BookingLister interface {
	ListBookings(ctx context.Context, filter booking.Filter) ([]booking.Booking, int64, error)
}

type ReportService interface {
	GetBookings(ctx context.Context, req BookingReportRequest) ([]BookingReportRow, error)
	ExportBookings(ctx context.Context, req BookingReportRequest, userID string) ([]byte, string, string, error)
}

type reportService struct {
	bookings BookingLister
	exporter *Exporter
	audit    auditlog.Recorder
	now      func() time.Time
}

const pageSize = 100

func NewReportService(bookings BookingLister, exporter *Exporter, audit auditlog.Recorder) ReportService {
	return &reportService{bookings: bookings, exporter: exporter, audit: audit, now: time.Now}
}

func (s *reportService) GetBookings(ctx context.Context, req BookingReportRequest) ([]BookingReportRow, error) {
	from, to, err := GetDateRange(s.now().In(s.exporter.Location), req.DateRange, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	filter := booking.Filter{
		CounterID:   req.CounterID,
		FromDate:    from,
		ToDate:      to,
		Shift:       strings.ToUpper(req.Shift),
		Status:      req.Status,
		BookingType: req.BookingType,
		Limit:       pageSize,
	}

	var rows []BookingReportRow
	for {
		page, total, err := s.bookings.ListBookings(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			rows = append(rows, rowFromBooking(b))
		}
		filter.Offset += len(page)
		if len(page) == 0 || int64(filter.Offset) >= total {
			return rows, nil
		}
	}
}

func (s *reportService) ExportBookings(ctx context.Context, req BookingReportRequest, userID string) ([]byte, string, string, error) {
	rows, err := s.GetBookings(ctx, req)
	if err != nil {
		s.audit.LogAction(ctx, userID, auditlog.ResourceBooking, 0, "BOOKINGS_REPORT_EXPORT_FAILED", map[string]interface{}{
			"format": req.Format,
			"error":  err.Error(),
		}, auditlog.StatusFailure)
		return nil, "", "", err
	}

	data, filename, contentType, err := s.exporter.ExportBookings(req.Format, rows)
	if err != nil {
		return nil, "", "", apperrors.Validation("%s", err.Error())
	}

	s.audit.LogAction(ctx, userID, auditlog.ResourceBooking, 0, "BOOKINGS_REPORT_EXPORTED", map[string]interface{}{
		"format":     req.Format,
		"counter_id": req.CounterID,
		"date_range": req.DateRange,
		"rows":       len(rows),
	}, auditlog.StatusSuccess)
	return data, filename, contentType, nil
}
