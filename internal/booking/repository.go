package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/slot"
)

type Repository interface {
	// Create claims one unit of the slot at expectedVersion, allocates the receipt number
	// and inserts the booking with its first audit entries, all or nothing.
	Create(ctx context.Context, b *Booking, expectedVersion int, entries []AuditEntry) error
	GetByID(ctx context.Context, id uint) (*Booking, error)
	// Transition persists b only if its stored status is still from, and appends entry.
	Transition(ctx context.Context, b *Booking, from string, entry AuditEntry) error
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	AuditTrail(ctx context.Context, bookingID uint) ([]AuditEntry, error)
	List(ctx context.Context, filter Filter) ([]Booking, int64, error)
	CountByStatus(ctx context.Context, filter Filter) (StatusCounts, error)
	ListByScope(ctx context.Context, counterID, businessDate, shift string) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

const nextReceiptSQL = `INSERT INTO receipt_sequences (counter_id, business_date, last_value)
VALUES (?, ?, 1)
ON CONFLICT (counter_id, business_date)
DO UPDATE SET last_value = receipt_sequences.last_value + 1
RETURNING last_value`

func (r *repository) Create(ctx context.Context, b *Booking, expectedVersion int, entries []AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&slot.Slot{}).
			Where("id = ? AND version = ? AND closed = ? AND booked_count < capacity", b.SlotID, expectedVersion, false).
			Updates(map[string]interface{}{
				"booked_count": gorm.Expr("booked_count + 1"),
				"version":      gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ConcurrentModification("slot %d changed since version %d", b.SlotID, expectedVersion)
		}

		var seq int
		if err := tx.Raw(nextReceiptSQL, b.CounterID, b.BusinessDate).Scan(&seq).Error; err != nil {
			return err
		}
		b.ReceiptSequence = seq
		b.ReceiptNumber = FormatReceipt(seq)

		if err := tx.Omit("AuditTrail").Create(b).Error; err != nil {
			return err
		}

		for i := range entries {
			entries[i].BookingID = b.ID
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}
		b.AuditTrail = entries
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Preload("AuditTrail", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("booking %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var transitionColumns = []string{
	"status",
	"cancellation_reason",
	"outcome_business_date",
	"outcome_shift",
	"payment_mode",
	"payment_cash_amount",
	"payment_digital_amount",
	"payment_transaction_id",
	"payment_status",
	"payment_collected_by",
	"payment_collected_at",
	"payment_business_date",
	"payment_shift",
	"updated_at",
}

func (r *repository) Transition(ctx context.Context, b *Booking, from string, entry AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", b.ID, from).
			Select(transitionColumns).
			Updates(b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ConcurrentModification("booking %d is no longer %s", b.ID, from)
		}

		entry.BookingID = b.ID
		return tx.Create(&entry).Error
	})
}

func (r *repository) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) AuditTrail(ctx context.Context, bookingID uint) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) filtered(ctx context.Context, f Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&Booking{})
	if f.CounterID != "" {
		query = query.Where("counter_id = ?", f.CounterID)
	}
	if f.BusinessDate != "" {
		query = query.Where("business_date = ?", f.BusinessDate)
	}
	if f.FromDate != "" {
		query = query.Where("business_date >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		query = query.Where("business_date <= ?", f.ToDate)
	}
	if f.Shift != "" {
		query = query.Where("shift = ?", f.Shift)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.BookingType != "" {
		query = query.Where("booking_type = ?", f.BookingType)
	}
	if f.ServiceID != 0 {
		query = query.Where("service_id = ?", f.ServiceID)
	}
	if f.SlotDate != "" {
		query = query.Where("slot_date = ?", f.SlotDate)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("devotee_name ILIKE ? OR devotee_phone ILIKE ? OR receipt_number = ?", like, like, f.Search)
	}
	return query
}

func (r *repository) List(ctx context.Context, f Filter) ([]Booking, int64, error) {
	var bookings []Booking
	var total int64

	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.filtered(ctx, f).
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&bookings).Error
	return bookings, total, err
}

func (r *repository) CountByStatus(ctx context.Context, f Filter) (StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	f.Status = ""
	err := r.filtered(ctx, f).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, row := range rows {
		counts.add(row.Status, row.Count)
	}
	return counts, nil
}

func (c *StatusCounts) add(status string, n int64) {
	switch status {
	case StatusPending:
		c.Pending += n
	case StatusCollected:
		c.Collected += n
	case StatusCompleted:
		c.Completed += n
	case StatusNoShow:
		c.NoShow += n
	case StatusCancelled:
		c.Cancelled += n
	}
	c.Total += n
}

// ListByScope returns every booking created, paid, cancelled or marked no-show in the shift.
func (r *repository) ListByScope(ctx context.Context, counterID, businessDate, shift string) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("counter_id = ?", counterID).
		Where(r.db.Where("business_date = ? AND shift = ?", businessDate, shift).
			Or("payment_business_date = ? AND payment_shift = ?", businessDate, shift).
			Or("outcome_business_date = ? AND outcome_shift = ?", businessDate, shift)).
		Order("receipt_sequence ASC").
		Find(&bookings).Error
	return bookings, err
}
