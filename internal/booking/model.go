package booking

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending   = "PENDING"
	StatusCollected = "COLLECTED"
	StatusCompleted = "COMPLETED"
	StatusNoShow    = "NO_SHOW"
	StatusCancelled = "CANCELLED"
)

const (
	TypeWalkIn    = "WALK_IN"
	TypePreBooked = "PRE_BOOKED"
)

const (
	ModeCash = "CASH"
	ModeUPI  = "UPI"
	ModeCard = "CARD"
)

const (
	PaymentPending   = "PENDING"
	PaymentCollected = "COLLECTED"
)

// Audit trail actions
const (
	ActionCreated          = "CREATED"
	ActionPaymentCollected = "PAYMENT_COLLECTED"
	ActionCompleted        = "COMPLETED"
	ActionNoShow           = "NO_SHOW"
	ActionCancelled        = "CANCELLED"
	ActionReprint          = "REPRINT"
	ActionPriceOverride    = "PRICE_OVERRIDE"
	ActionReserveOverride  = "RESERVE_OVERRIDE"
)

// DefaultShift is used when no configured shift window covers the booking time.
const DefaultShift = "GENERAL"

// IsTerminal reports whether no transition may leave the status.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusNoShow || status == StatusCancelled
}

// FormatReceipt renders a receipt sequence as the printed receipt number.
func FormatReceipt(seq int) string {
	return fmt.Sprintf("%06d", seq)
}

// ======================
// 🔹 Booking
// ======================

type Devotee struct {
	Name              string `gorm:"type:varchar(255);not null" json:"name"`
	Phone             string `gorm:"type:varchar(20)" json:"phone"`
	IdentityAttribute string `gorm:"type:varchar(100)" json:"identity_attribute,omitempty"`
	PartySize         int    `gorm:"not null" json:"party_size"`
	IsRegular         bool   `json:"is_regular"`
}

type Payment struct {
	AmountDue       float64    `gorm:"type:decimal(10,2)" json:"amount_due"`
	Mode            string     `gorm:"type:varchar(10)" json:"mode,omitempty"`
	CashAmount      float64    `gorm:"type:decimal(10,2)" json:"cash_amount"`
	DigitalAmount   float64    `gorm:"type:decimal(10,2)" json:"digital_amount"`
	TransactionID   string     `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	Status          string     `gorm:"type:varchar(20)" json:"status"`
	CollectedBy     string     `gorm:"type:varchar(100)" json:"collected_by,omitempty"`
	CollectedAt     *time.Time `json:"collected_at,omitempty"`
	PriceOverridden bool       `json:"price_overridden"`
	OverrideReason  string     `gorm:"type:varchar(255)" json:"override_reason,omitempty"`

	// counter shift the money was taken in
	BusinessDate string `gorm:"type:varchar(10);index:idx_booking_payment_scope,priority:1" json:"business_date,omitempty"`
	Shift        string `gorm:"type:varchar(30);index:idx_booking_payment_scope,priority:2" json:"shift,omitempty"`
}

// Booking keeps a snapshot of the slot it consumed so later catalog edits cannot rewrite history.
type Booking struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Reference       string `gorm:"type:varchar(36);uniqueIndex" json:"reference"`
	ReceiptSequence int    `gorm:"not null" json:"receipt_sequence"`
	ReceiptNumber   string `gorm:"type:varchar(6);not null" json:"receipt_number"`

	CounterID    string `gorm:"type:varchar(50);not null;index:idx_booking_scope,priority:1" json:"counter_id"`
	BusinessDate string `gorm:"type:varchar(10);not null;index:idx_booking_scope,priority:2" json:"business_date"`
	Shift        string `gorm:"type:varchar(30);not null;index:idx_booking_scope,priority:3" json:"shift"`

	SlotID          uint      `gorm:"not null;index" json:"slot_id"`
	ServiceID       uint      `gorm:"not null;index" json:"service_id"`
	EntityID        uint      `gorm:"index" json:"entity_id"`
	ServiceName     string    `gorm:"type:varchar(255)" json:"service_name"`
	Category        string    `gorm:"type:varchar(50)" json:"category"`
	Price           float64   `gorm:"type:decimal(10,2)" json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	SlotDate        string    `gorm:"type:varchar(10);index" json:"slot_date"`
	StartTime       string    `gorm:"type:varchar(5)" json:"start_time"`
	EndTime         string    `gorm:"type:varchar(5)" json:"end_time"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`

	Devotee Devotee `gorm:"embedded;embeddedPrefix:devotee_" json:"devotee"`
	Payment Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Status             string `gorm:"type:varchar(20);not null;index" json:"status"`
	BookingType        string `gorm:"type:varchar(20);not null" json:"booking_type"`
	CancellationReason string `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`

	// counter shift that recorded the cancellation or no-show
	OutcomeBusinessDate string `gorm:"type:varchar(10);index:idx_booking_outcome_scope,priority:1" json:"outcome_business_date,omitempty"`
	OutcomeShift        string `gorm:"type:varchar(30);index:idx_booking_outcome_scope,priority:2" json:"outcome_shift,omitempty"`

	CreatedBy string    `gorm:"type:varchar(100)" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuditTrail []AuditEntry `gorm:"foreignKey:BookingID" json:"audit_trail,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// PaymentScope is the shift that settles the collected money. Rows without a stamped
// payment scope belong to their creation shift.
func (b *Booking) PaymentScope() (string, string) {
	if b.Payment.BusinessDate == "" {
		return b.BusinessDate, b.Shift
	}
	return b.Payment.BusinessDate, b.Payment.Shift
}

// TouchesScope reports whether the booking contributes anything to the counter shift.
func (b *Booking) TouchesScope(counterID, businessDate, shift string) bool {
	if b.CounterID != counterID {
		return false
	}
	paidDate, paidShift := b.PaymentScope()
	outcomeDate, outcomeShift := b.OutcomeScope()
	return (b.BusinessDate == businessDate && b.Shift == shift) ||
		(paidDate == businessDate && paidShift == shift) ||
		(outcomeDate == businessDate && outcomeShift == shift)
}

// OutcomeScope is the shift that counts the cancellation or no-show.
func (b *Booking) OutcomeScope() (string, string) {
	if b.OutcomeBusinessDate == "" {
		return b.BusinessDate, b.Shift
	}
	return b.OutcomeBusinessDate, b.OutcomeShift
}

// AuditEntry is one append-only line of a booking's history.
type AuditEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	BookingID uint           `gorm:"not null;index" json:"booking_id"`
	Action    string         `gorm:"type:varchar(30);not null" json:"action"`
	UserID    string         `gorm:"type:varchar(100)" json:"user_id"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	At        time.Time      `gorm:"not null" json:"timestamp"`
}

func (AuditEntry) TableName() string {
	return "booking_audit_entries"
}

// ReceiptSequence is the durable per (counter, business date) receipt counter.
type ReceiptSequence struct {
	CounterID    string `gorm:"type:varchar(50);primaryKey"`
	BusinessDate string `gorm:"type:varchar(10);primaryKey"`
	LastValue    int    `gorm:"not null"`
}

func (ReceiptSequence) TableName() string {
	return "receipt_sequences"
}

// ======================
// 🔹 Inputs & Filters
// ======================

type PaymentInput struct {
	Mode          string   `json:"mode"`
	Amount        float64  `json:"amount"`
	CashAmount    *float64 `json:"cash_amount,omitempty"`
	DigitalAmount *float64 `json:"digital_amount,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
}

type CreateInput struct {
	SlotID              uint
	ExpectedSlotVersion int
	Devotee             Devotee
	Payment             *PaymentInput
	BookingType         string
	CounterID           string
	Shift               string
	UserID              string
	OverrideReserve     bool
	PriceOverride       *float64
	OverrideReason      string
}

type Filter struct {
	CounterID    string
	BusinessDate string
	FromDate     string // business_date range, inclusive
	ToDate       string
	Shift        string
	Status       string
	BookingType  string
	ServiceID    uint
	SlotDate     string
	Search       string
	Limit        int
	Offset       int
}

type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Collected int64 `json:"collected"`
	Completed int64 `json:"completed"`
	NoShow    int64 `json:"no_show"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}
