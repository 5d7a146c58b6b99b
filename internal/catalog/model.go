package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// ======================
// 🔹 Service Definition
// ======================

// TimeWindow is a time-of-day window, both ends "HH:MM" in the temple time zone.
type TimeWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type ServiceDefinition struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	EntityID      uint    `gorm:"not null;index" json:"entity_id"`
	Code          string  `gorm:"type:varchar(120);not null;index" json:"code"`
	Name          string  `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	LocalizedName string  `gorm:"type:varchar(255)" json:"localized_name,omitempty"`
	Category      string  `gorm:"type:varchar(50);not null" json:"category" validate:"required,max=50"` // Archana, Abhishekam, ...
	Description   string  `gorm:"type:text" json:"description"`
	Price         float64 `gorm:"type:decimal(10,2);default:0" json:"price" validate:"gte=0"`

	DurationMinutes int `json:"duration_minutes" validate:"gte=0"`
	Capacity        int `gorm:"not null" json:"capacity" validate:"gt=0"`

	Weekdays    datatypes.JSONSlice[int]        `gorm:"type:jsonb" json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	TimeWindows datatypes.JSONSlice[TimeWindow] `gorm:"type:jsonb" json:"time_windows" validate:"required,min=1,dive"`

	MinDevotees int `gorm:"default:1" json:"min_devotees" validate:"gte=1"`
	MaxDevotees int `gorm:"default:1" json:"max_devotees" validate:"gte=1"`

	RequiresIdentityAttribute bool   `gorm:"default:false" json:"requires_identity_attribute"`
	IdentityAttributeLabel    string `gorm:"type:varchar(50)" json:"identity_attribute_label"`

	AdvanceBookingRequired  bool `gorm:"default:false" json:"advance_booking_required"`
	AdvanceBookingDaysAhead int  `gorm:"default:0" json:"advance_booking_days_ahead" validate:"gte=0"`

	WalkInAllowed            bool `gorm:"default:true" json:"walk_in_allowed"`
	WalkInReservedPercentage int  `gorm:"default:0" json:"walk_in_reserved_percentage" validate:"gte=0,lte=100"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsPriority bool `gorm:"default:false" json:"is_priority"`
	Revision   int  `gorm:"default:1" json:"revision"`

	CreatedBy string    `gorm:"type:varchar(100)" json:"created_by"`
	UpdatedBy string    `gorm:"type:varchar(100)" json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ServiceDefinition) TableName() string {
	return "service_definitions"
}

// ServicePatch carries a partial update; nil fields are left untouched.
type ServicePatch struct {
	Name                      *string       `json:"name,omitempty"`
	LocalizedName             *string       `json:"localized_name,omitempty"`
	Category                  *string       `json:"category,omitempty"`
	Description               *string       `json:"description,omitempty"`
	Price                     *float64      `json:"price,omitempty"`
	DurationMinutes           *int          `json:"duration_minutes,omitempty"`
	Capacity                  *int          `json:"capacity,omitempty"`
	Weekdays                  *[]int        `json:"weekdays,omitempty"`
	TimeWindows               *[]TimeWindow `json:"time_windows,omitempty"`
	MinDevotees               *int          `json:"min_devotees,omitempty"`
	MaxDevotees               *int          `json:"max_devotees,omitempty"`
	RequiresIdentityAttribute *bool         `json:"requires_identity_attribute,omitempty"`
	IdentityAttributeLabel    *string       `json:"identity_attribute_label,omitempty"`
	AdvanceBookingRequired    *bool         `json:"advance_booking_required,omitempty"`
	AdvanceBookingDaysAhead   *int          `json:"advance_booking_days_ahead,omitempty"`
	WalkInAllowed             *bool         `json:"walk_in_allowed,omitempty"`
	WalkInReservedPercentage  *int          `json:"walk_in_reserved_percentage,omitempty"`
	IsPriority                *bool         `json:"is_priority,omitempty"`
}

// ServiceFilter drives the admin listing.
type ServiceFilter struct {
	EntityID   uint
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
