package reports

import (
	"time"

	"github.com/sharath018/seva-counter-backend/internal/booking"
)

const (
	// Date range constants
	DateRangeDaily   = "daily"
	DateRangeWeekly  = "weekly"
	DateRangeMonthly = "monthly"
	DateRangeYearly  = "yearly"
	DateRangeCustom  = "custom"

	// Report format constants
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"

	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV   = "text/csv"
	contentTypePDF   = "application/pdf"
)

// BookingReportRequest selects the bookings of a report.
type BookingReportRequest struct {
	CounterID   string
	Shift       string
	Status      string
	BookingType string
	DateRange   string
	StartDate   string
	EndDate     string
	Format      string
}

// BookingReportRow is one flattened booking line
type BookingReportRow struct {
	ReceiptNumber string
	CounterID     string
	BusinessDate  string
	Shift         string
	ServiceName   string
	SlotDate      string
	StartTime     string
	DevoteeName   string
	DevoteePhone  string
	PartySize     int
	BookingType   string
	Status        string
	PaymentMode   string
	AmountDue     float64
	CashAmount    float64
	DigitalAmount float64
	CreatedAt     time.Time
}

func rowFromBooking(b booking.Booking) BookingReportRow {
	return BookingReportRow{
		ReceiptNumber: b.ReceiptNumber,
		CounterID:     b.CounterID,
		BusinessDate:  b.BusinessDate,
		Shift:         b.Shift,
		ServiceName:   b.ServiceName,
		SlotDate:      b.SlotDate,
		StartTime:     b.StartTime,
		DevoteeName:   b.Devotee.Name,
		DevoteePhone:  b.Devotee.Phone,
		PartySize:     b.Devotee.PartySize,
		BookingType:   b.BookingType,
		Status:        b.Status,
		PaymentMode:   b.Payment.Mode,
		AmountDue:     b.Payment.AmountDue,
		CashAmount:    b.Payment.CashAmount,
		DigitalAmount: b.Payment.DigitalAmount,
		CreatedAt:     b.CreatedAt,
	}
}
