package slot

import (
	"time"
)

const (
	StatusAvailable = "AVAILABLE"
	StatusLimited   = "LIMITED"
	StatusFull      = "FULL"
	StatusClosed    = "CLOSED"
)

// DateLayout is the storage format of Slot.Date.
const DateLayout = "2006-01-02"

// MaxGenerationDays caps a single GenerateSlots range.
const MaxGenerationDays = 92

// ======================
// 🔹 Slot Instance
// ======================

type Slot struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ServiceID uint   `gorm:"not null;uniqueIndex:idx_slot_occurrence,priority:1" json:"service_id"`
	EntityID  uint   `gorm:"not null;index" json:"entity_id"`
	Date      string `gorm:"type:varchar(10);not null;uniqueIndex:idx_slot_occurrence,priority:2;index" json:"date"`
	StartTime string `gorm:"type:varchar(5);not null;uniqueIndex:idx_slot_occurrence,priority:3" json:"start_time"`
	EndTime   string `gorm:"type:varchar(5);not null" json:"end_time"`

	StartsAt time.Time `gorm:"not null" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`

	Capacity       int  `gorm:"not null" json:"capacity"`
	BookedCount    int  `gorm:"not null;default:0" json:"booked_count"`
	WalkInReserved int  `gorm:"not null;default:0" json:"walk_in_reserved"`
	Closed         bool `gorm:"not null;default:false" json:"closed"`
	Version        int  `gorm:"not null;default:1" json:"version"`

	OverrideAllowed bool `gorm:"not null;default:false" json:"override_allowed"`

	Rules `gorm:"embedded;embeddedPrefix:rule_" json:"rules"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// derived, never persisted
	AvailableCount int    `gorm:"-" json:"available_count"`
	Status         string `gorm:"-" json:"status"`
}

func (Slot) TableName() string {
	return "slots"
}

// Rules is the service configuration frozen onto a slot at generation time.
// Bookings validate against it, so later catalog edits never reach existing slots.
type Rules struct {
	ServiceName               string  `gorm:"type:varchar(255)" json:"service_name"`
	LocalizedName             string  `gorm:"type:varchar(255)" json:"localized_name,omitempty"`
	Category                  string  `gorm:"type:varchar(50)" json:"category"`
	Price                     float64 `gorm:"type:decimal(10,2)" json:"price"`
	DurationMinutes           int     `json:"duration_minutes"`
	MinDevotees               int     `json:"min_devotees"`
	MaxDevotees               int     `json:"max_devotees"`
	RequiresIdentityAttribute bool    `json:"requires_identity_attribute"`
	IdentityAttributeLabel    string  `gorm:"type:varchar(50)" json:"identity_attribute_label,omitempty"`
	WalkInAllowed             bool    `json:"walk_in_allowed"`
	AdvanceBookingRequired    bool    `json:"advance_booking_required"`
	AdvanceBookingDaysAhead   int     `json:"advance_booking_days_ahead"`
	ServiceRevision           int     `json:"service_revision"`
}

// DeriveStatus is a pure function of occupancy; CLOSED only comes from the flag.
func DeriveStatus(booked, capacity int, closed bool) string {
	if closed {
		return StatusClosed
	}
	if booked >= capacity {
		return StatusFull
	}
	if float64(capacity-booked) <= float64(capacity)*0.2 {
		return StatusLimited
	}
	return StatusAvailable
}

// Refresh recomputes the derived fields. Call after every load or count change.
func (s *Slot) Refresh() *Slot {
	s.AvailableCount = s.Capacity - s.BookedCount
	s.Status = DeriveStatus(s.BookedCount, s.Capacity, s.Closed)
	return s
}

// WalkInLimit is the highest bookedCount a walk-in may push the slot to.
func (s *Slot) WalkInLimit() int {
	return s.Capacity - s.WalkInReserved
}

// GenerationResult summarises one generation run.
type GenerationResult struct {
	ServiceID uint `json:"service_id"`
	Created   int  `json:"created"`
	Skipped   int  `json:"skipped"`
}
