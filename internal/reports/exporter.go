package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/settlement"
)

// Exporter renders booking lists, receipts and settlement workbooks.
type Exporter struct {
	// TempleName is printed on receipts.
	TempleName string
	Location   *time.Location
}

func NewExporter(templeName string, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{TempleName: templeName, Location: loc}
}

var bookingHeaders = []string{"Receipt", "Counter", "Business Date", "Shift", "Service", "Slot Date", "Start", "Devotee", "Phone", "Party", "Type", "Status", "Mode", "Amount Due", "Cash", "Digital", "Created At"}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (e *Exporter) record(r BookingReportRow) []string {
	return []string{
		r.ReceiptNumber,
		r.CounterID,
		r.BusinessDate,
		r.Shift,
		r.ServiceName,
		r.SlotDate,
		r.StartTime,
		r.DevoteeName,
		r.DevoteePhone,
		strconv.Itoa(r.PartySize),
		r.BookingType,
		r.Status,
		r.PaymentMode,
		money(r.AmountDue),
		money(r.CashAmount),
		money(r.DigitalAmount),
		r.CreatedAt.In(e.Location).Format("2006-01-02 15:04:05"),
	}
}

// ExportBookings renders rows in format and returns the bytes, file name and content type.
func (e *Exporter) ExportBookings(format string, rows []BookingReportRow) ([]byte, string, string, error) {
	timestamp := time.Now().In(e.Location).Format("20060102_150405")

	switch format {
	case FormatExcel:
		data, err := e.exportBookingsExcel(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, fmt.Sprintf("bookings_report_%s.xlsx", timestamp), contentTypeExcel, nil

	case FormatCSV:
		data, err := e.exportBookingsCSV(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, fmt.Sprintf("bookings_report_%s.csv", timestamp), contentTypeCSV, nil

	case FormatPDF:
		data, err := e.exportBookingsPDF(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, fmt.Sprintf("bookings_report_%s.pdf", timestamp), contentTypePDF, nil

	default:
		return nil, "", "", fmt.Errorf("unsupported format for bookings: %s", format)
	}
}

func (e *Exporter) exportBookingsExcel(rows []BookingReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Bookings"
	f.SetSheetName("Sheet1", sheetName)

	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, r := range rows {
		row := i + 2
		for col, v := range e.record(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
		// amounts as numbers so totals can be summed in the sheet
		f.SetCellValue(sheetName, fmt.Sprintf("N%d", row), r.AmountDue)
		f.SetCellValue(sheetName, fmt.Sprintf("O%d", row), r.CashAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("P%d", row), r.DigitalAmount)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportBookingsCSV(rows []BookingReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(bookingHeaders); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := writer.Write(e.record(r)); err != nil {
			return nil, err
		}
	}

	// Important: Flush before getting bytes
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportBookingsPDF(rows []BookingReportRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Seva Bookings Report")
	pdf.Ln(20)

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{18, 16, 22, 20, 45, 22, 14, 40, 26, 22, 20, 16, 20}
	headers := []string{"Receipt", "Counter", "Date", "Shift", "Service", "Slot Date", "Start", "Devotee", "Type", "Status", "Mode", "Due", "Paid"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		values := []string{r.ReceiptNumber, r.CounterID, r.BusinessDate, r.Shift, r.ServiceName, r.SlotDate, r.StartTime,
			r.DevoteeName, r.BookingType, r.Status, r.PaymentMode, money(r.AmountDue), money(r.CashAmount + r.DigitalAmount)}
		for i, v := range values {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderReceipt prints a single booking on an 80mm roll.
func (e *Exporter) RenderReceipt(b *booking.Booking) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 80, Ht: 150},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, e.TempleName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Seva Receipt "+b.ReceiptNumber, "", 1, "C", false, 0, "")

	reprints := 0
	for _, entry := range b.AuditTrail {
		if entry.Action == booking.ActionReprint {
			reprints++
		}
	}
	if reprints > 0 {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("DUPLICATE COPY %d", reprints), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	lines := [][2]string{
		{"Counter", b.CounterID + " / " + b.Shift},
		{"Date", b.BusinessDate},
		{"Seva", b.ServiceName},
		{"Slot", b.SlotDate + " " + b.StartTime + "-" + b.EndTime},
		{"Devotee", b.Devotee.Name},
		{"Persons", strconv.Itoa(b.Devotee.PartySize)},
		{"Type", b.BookingType},
		{"Status", b.Status},
		{"Amount", money(b.Payment.AmountDue)},
	}
	if b.Devotee.IdentityAttribute != "" {
		lines = append(lines, [2]string{"Gotra", b.Devotee.IdentityAttribute})
	}
	if b.Payment.Status == booking.PaymentCollected {
		lines = append(lines, [2]string{"Paid by", b.Payment.Mode})
		if b.Payment.TransactionID != "" {
			lines = append(lines, [2]string{"Txn", b.Payment.TransactionID})
		}
	}

	pdf.SetFont("Arial", "", 9)
	for _, l := range lines {
		pdf.CellFormat(22, 5, l[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, l[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", 7)
	pdf.CellFormat(0, 4, "Ref "+b.Reference, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SettlementWorkbook writes a summary sheet and a bookings sheet.
func (e *Exporter) SettlementWorkbook(s *settlement.CounterSettlement, bookings []booking.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Settlement"
	f.SetSheetName("Sheet1", summary)

	rows := []struct {
		label string
		value interface{}
	}{
		{"Counter", s.CounterID},
		{"Counter Name", s.CounterName},
		{"Business Date", s.BusinessDate},
		{"Shift", s.Shift},
		{"Status", s.Status},
		{"Opening Balance", s.OpeningBalance},
		{"System Cash Total", s.SystemCashTotal},
		{"UPI Total", s.UPITotal},
		{"Card Total", s.CardTotal},
		{"Digital Total", s.DigitalTotal},
		{"Total Revenue", s.TotalRevenue},
		{"Closing Balance", s.ClosingBalance},
		{"Physical Cash Count", physicalCount(s)},
		{"Variance", s.Variance},
		{"Bookings", s.BookingsCount},
		{"Cash Bookings", s.CashBookings},
		{"Digital Bookings", s.DigitalBookings},
		{"Cancelled", s.CancelledCount},
		{"No-shows", s.NoShowCount},
		{"No-show Revenue Loss (" + s.LossEstimator + ")", s.NoShowRevenueLoss},
		{"Target Revenue", s.TargetRevenue},
		{"Achievement %", s.AchievementPercentage},
	}
	for i, r := range rows {
		f.SetCellValue(summary, fmt.Sprintf("A%d", i+1), r.label)
		f.SetCellValue(summary, fmt.Sprintf("B%d", i+1), r.value)
	}
	f.SetColWidth(summary, "A", "A", 32)

	detail := "Bookings"
	if _, err := f.NewSheet(detail); err != nil {
		return nil, err
	}
	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(detail, cell, header)
	}
	for i, b := range bookings {
		for col, v := range e.record(rowFromBooking(b)) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(detail, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func physicalCount(s *settlement.CounterSettlement) interface{} {
	if s.PhysicalCashCount == nil {
		return ""
	}
	return *s.PhysicalCashCount
}
