package settlement

import "time"

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusLocked    = "LOCKED"
)

// CounterSettlement is the end-of-shift reconciliation of one counter.
type CounterSettlement struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CounterID    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_settlement_scope,priority:1" json:"counter_id"`
	CounterName  string `gorm:"type:varchar(100)" json:"counter_name"`
	BusinessDate string `gorm:"type:varchar(10);not null;uniqueIndex:idx_settlement_scope,priority:2" json:"business_date"`
	Shift        string `gorm:"type:varchar(30);not null;uniqueIndex:idx_settlement_scope,priority:3" json:"shift"`

	OpeningBalance  float64 `gorm:"type:decimal(12,2)" json:"opening_balance"`
	ClosingBalance  float64 `gorm:"type:decimal(12,2)" json:"closing_balance"`
	SystemCashTotal float64 `gorm:"type:decimal(12,2)" json:"system_cash_total"`
	UPITotal        float64 `gorm:"column:upi_total;type:decimal(12,2)" json:"upi_total"`
	CardTotal       float64 `gorm:"type:decimal(12,2)" json:"card_total"`
	DigitalTotal    float64 `gorm:"type:decimal(12,2)" json:"digital_total"`

	PhysicalCashCount *float64 `gorm:"type:decimal(12,2)" json:"physical_cash_count,omitempty"`
	Variance          float64  `gorm:"type:decimal(12,2)" json:"variance"`

	BookingsCount   int `json:"bookings_count"`
	CashBookings    int `json:"cash_bookings"`
	DigitalBookings int `json:"digital_bookings"`
	CancelledCount  int `json:"cancelled_count"`

	TotalRevenue          float64 `gorm:"type:decimal(12,2)" json:"total_revenue"`
	TargetRevenue         float64 `gorm:"type:decimal(12,2)" json:"target_revenue"`
	AchievementPercentage float64 `gorm:"type:decimal(7,2)" json:"achievement_percentage"`

	NoShowCount       int     `json:"no_show_count"`
	NoShowRevenueLoss float64 `gorm:"type:decimal(12,2)" json:"no_show_revenue_loss"`
	LossEstimator     string  `gorm:"type:varchar(20)" json:"loss_estimator"`

	Status      string     `gorm:"type:varchar(20);not null;index" json:"status"`
	IsLocked    bool       `gorm:"not null;default:false" json:"is_locked"`
	BuiltBy     string     `gorm:"type:varchar(100)" json:"built_by"`
	SubmittedBy string     `gorm:"type:varchar(100)" json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	LockedBy    string     `gorm:"type:varchar(100)" json:"locked_by,omitempty"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CounterSettlement) TableName() string {
	return "counter_settlements"
}

// BuildInput selects the scope to reconcile.
type BuildInput struct {
	CounterID      string
	CounterName    string
	BusinessDate   string
	Shift          string
	OpeningBalance float64
	TargetRevenue  *float64 // nil uses the configured default
	UserID         string
}

type Filter struct {
	CounterID string
	FromDate  string
	ToDate    string
	Status    string
	Limit     int
	Offset    int
}
