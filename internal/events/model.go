package events

import (
	"time"
)

// Domain event types. Booking events carry the booking status they entered.
const (
	TypeCreated             = "CREATED"
	TypeCollected           = "COLLECTED"
	TypeCompleted           = "COMPLETED"
	TypeCancelled           = "CANCELLED"
	TypeNoShow              = "NO_SHOW"
	TypeSettlementSubmitted = "SETTLEMENT_SUBMITTED"
	TypeSettlementLocked    = "SETTLEMENT_LOCKED"
)

type Event struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Resource     string                 `json:"resource"` // booking | settlement
	ResourceID   uint                   `json:"resource_id"`
	CounterID    string                 `json:"counter_id"`
	BusinessDate string                 `json:"business_date"`
	Shift        string                 `json:"shift"`
	OccurredAt   time.Time              `json:"occurred_at"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// Publisher is what the ledger and reconciler depend on. Publish must not block.
type Publisher interface {
	Publish(e Event)
}
