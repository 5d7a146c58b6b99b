package booking

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/events"
	"github.com/sharath018/seva-counter-backend/internal/slot"
)

// SlotReader is the allocator read side the ledger validates against.
type SlotReader interface {
	GetSlot(ctx context.Context, id uint) (*slot.Slot, error)
}

// LockChecker reports whether a counter shift has been settled and locked.
type LockChecker interface {
	IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error)
}

type Service interface {
	CreateBooking(ctx context.Context, in CreateInput) (*Booking, error)
	RecordPayment(ctx context.Context, id uint, in PaymentInput, userID string) (*Booking, error)
	CompleteService(ctx context.Context, id uint, userID string) (*Booking, error)
	MarkNoShow(ctx context.Context, id uint, userID string) (*Booking, error)
	CancelBooking(ctx context.Context, id uint, reason, userID string) (*Booking, error)
	ReprintReceipt(ctx context.Context, id uint, approverID string) (*Booking, error)

	GetBooking(ctx context.Context, id uint) (*Booking, error)
	GetAuditTrail(ctx context.Context, id uint) ([]AuditEntry, error)
	ListBookings(ctx context.Context, filter Filter) ([]Booking, int64, error)
	StatusCounts(ctx context.Context, filter Filter) (StatusCounts, error)
	ListScope(ctx context.Context, counterID, businessDate, shift string) ([]Booking, error)
}

type service struct {
	repo   Repository
	slots  SlotReader
	locks  LockChecker
	bus    events.Publisher
	audit  auditlog.Recorder
	loc    *time.Location
	shifts *Shifts
	now    func() time.Time
}

type Option func(*service)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, slots SlotReader, locks LockChecker, bus events.Publisher, audit auditlog.Recorder, loc *time.Location, shifts *Shifts, opts ...Option) Service {
	if loc == nil {
		loc = time.UTC
	}
	if bus == nil {
		bus = events.Nop{}
	}
	s := &service{
		repo:   repo,
		slots:  slots,
		locks:  locks,
		bus:    bus,
		audit:  audit,
		loc:    loc,
		shifts: shifts,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) clock() time.Time {
	return s.now().In(s.loc)
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func detailsJSON(details map[string]interface{}) datatypes.JSON {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// currentScope is the business date and shift the counter is working in at now.
func (s *service) currentScope(now time.Time) (string, string) {
	return now.Format(slot.DateLayout), s.shifts.Resolve(now)
}

// checkShift accepts an explicit shift only when it names the shift open at now.
func (s *service) checkShift(requested, open string, now time.Time) error {
	requested = strings.ToUpper(strings.TrimSpace(requested))
	if requested == "" {
		return nil
	}
	if !s.shifts.Has(requested) {
		return apperrors.Validation("unknown shift %q", requested)
	}
	if requested != open {
		return apperrors.Validation("shift %s is not open at %s, the counter is in %s", requested, now.Format("15:04"), open)
	}
	return nil
}

func (s *service) ensureUnlocked(ctx context.Context, counterID, businessDate, shift string) error {
	locked, err := s.locks.IsLocked(ctx, counterID, businessDate, shift)
	if err != nil {
		return err
	}
	if locked {
		return apperrors.SettlementLocked("counter %s %s %s is settled and locked", counterID, businessDate, shift)
	}
	return nil
}

// ======================
// 🔹 Create
// ======================

func validateCreate(in CreateInput) error {
	switch {
	case in.SlotID == 0:
		return apperrors.Validation("slot_id is required")
	case in.ExpectedSlotVersion <= 0:
		return apperrors.Validation("expected_slot_version is required")
	case strings.TrimSpace(in.CounterID) == "":
		return apperrors.Validation("counter_id is required")
	case strings.TrimSpace(in.UserID) == "":
		return apperrors.Validation("user id is required")
	case strings.TrimSpace(in.Devotee.Name) == "":
		return apperrors.Validation("devotee name is required")
	case in.Devotee.PartySize <= 0:
		return apperrors.Validation("party size must be positive")
	case in.BookingType != TypeWalkIn && in.BookingType != TypePreBooked:
		return apperrors.Validation("booking_type must be %s or %s", TypeWalkIn, TypePreBooked)
	}
	if in.PriceOverride != nil {
		if *in.PriceOverride < 0 {
			return apperrors.Validation("price override must not be negative")
		}
		if strings.TrimSpace(in.OverrideReason) == "" {
			return apperrors.Validation("price override requires a reason")
		}
	}
	return nil
}

// checkEligibility applies the rules frozen onto the slot.
func checkEligibility(sl *slot.Slot, in CreateInput, now time.Time, businessDate string) error {
	rules := sl.Rules
	if in.Devotee.PartySize < rules.MinDevotees || in.Devotee.PartySize > rules.MaxDevotees {
		return apperrors.Eligibility("party size %d outside [%d,%d]", in.Devotee.PartySize, rules.MinDevotees, rules.MaxDevotees)
	}
	if rules.RequiresIdentityAttribute && strings.TrimSpace(in.Devotee.IdentityAttribute) == "" {
		label := rules.IdentityAttributeLabel
		if label == "" {
			label = "identity attribute"
		}
		return apperrors.Eligibility("%s is required for %s", label, rules.ServiceName)
	}
	if !now.Before(sl.EndsAt) {
		return apperrors.Eligibility("slot %d has already ended", sl.ID)
	}

	slotDay, err := time.ParseInLocation(slot.DateLayout, sl.Date, now.Location())
	if err != nil {
		return apperrors.Validation("slot %d has malformed date %q", sl.ID, sl.Date)
	}
	today, _ := time.ParseInLocation(slot.DateLayout, businessDate, now.Location())
	daysAhead := int(math.Round(slotDay.Sub(today).Hours() / 24))

	switch in.BookingType {
	case TypeWalkIn:
		if !rules.WalkInAllowed {
			return apperrors.Eligibility("%s does not accept walk-ins", rules.ServiceName)
		}
		if rules.AdvanceBookingRequired {
			return apperrors.Eligibility("%s must be booked in advance", rules.ServiceName)
		}
		if daysAhead != 0 {
			return apperrors.Eligibility("walk-ins are only accepted for today's slots")
		}
	case TypePreBooked:
		if rules.AdvanceBookingRequired && daysAhead < 1 {
			return apperrors.Eligibility("%s must be booked before the day of the service", rules.ServiceName)
		}
		if rules.AdvanceBookingDaysAhead > 0 && daysAhead > rules.AdvanceBookingDaysAhead {
			return apperrors.Eligibility("%s can be booked at most %d days ahead", rules.ServiceName, rules.AdvanceBookingDaysAhead)
		}
	}
	return nil
}

// checkCapacity reports whether the booking dips into the walk-in reserve through an override.
func checkCapacity(sl *slot.Slot, in CreateInput) (bool, error) {
	sl.Refresh()
	if sl.Status == slot.StatusClosed {
		return false, apperrors.CapacityExceeded("slot %d is closed", sl.ID)
	}
	if sl.Status == slot.StatusFull {
		return false, apperrors.CapacityExceeded("slot %d is full", sl.ID)
	}

	if in.BookingType != TypeWalkIn || sl.BookedCount+1 <= sl.WalkInLimit() {
		return false, nil
	}
	if in.OverrideReserve && sl.OverrideAllowed {
		return true, nil
	}
	return false, apperrors.CapacityExceeded("slot %d: %d of %d booked, remaining %d units are reserved", sl.ID, sl.BookedCount, sl.Capacity, sl.WalkInReserved)
}

// splitPayment validates a payment against the amount due and returns the cash and digital parts.
func splitPayment(amountDue float64, in PaymentInput) (float64, float64, error) {
	mode := strings.ToUpper(in.Mode)
	if mode != ModeCash && mode != ModeUPI && mode != ModeCard {
		return 0, 0, apperrors.Validation("payment mode must be CASH, UPI or CARD")
	}

	amount := in.Amount
	if amount == 0 && in.CashAmount == nil && in.DigitalAmount == nil {
		amount = amountDue
	}

	if in.CashAmount != nil || in.DigitalAmount != nil {
		var cash, digital float64
		if in.CashAmount != nil {
			cash = *in.CashAmount
		}
		if in.DigitalAmount != nil {
			digital = *in.DigitalAmount
		}
		if cash < 0 || digital < 0 {
			return 0, 0, apperrors.Validation("payment parts must not be negative")
		}
		if mode == ModeCash && digital > 0 {
			return 0, 0, apperrors.Validation("a CASH payment cannot carry a digital part")
		}
		if !sameAmount(cash+digital, amountDue) {
			return 0, 0, apperrors.Validation("payment parts %.2f + %.2f do not equal amount due %.2f", cash, digital, amountDue)
		}
		if in.Amount != 0 && !sameAmount(in.Amount, amountDue) {
			return 0, 0, apperrors.Validation("payment amount %.2f does not equal amount due %.2f", in.Amount, amountDue)
		}
		return cash, digital, nil
	}

	if !sameAmount(amount, amountDue) {
		return 0, 0, apperrors.Validation("payment amount %.2f does not equal amount due %.2f", amount, amountDue)
	}
	if mode == ModeCash {
		return amountDue, 0, nil
	}
	return 0, amountDue, nil
}

// collect takes the payment and books the money to the counter shift open at the time.
func collect(b *Booking, in PaymentInput, userID string, at time.Time, businessDate, shift string) error {
	cash, digital, err := splitPayment(b.Payment.AmountDue, in)
	if err != nil {
		return err
	}
	b.Payment.BusinessDate = businessDate
	b.Payment.Shift = shift
	b.Payment.Mode = strings.ToUpper(in.Mode)
	b.Payment.CashAmount = cash
	b.Payment.DigitalAmount = digital
	b.Payment.TransactionID = in.TransactionID
	b.Payment.Status = PaymentCollected
	b.Payment.CollectedBy = userID
	b.Payment.CollectedAt = &at
	b.Status = StatusCollected
	return nil
}

func (s *service) CreateBooking(ctx context.Context, in CreateInput) (*Booking, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	sl, err := s.slots.GetSlot(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	businessDate, shift := s.currentScope(now)
	if err := s.checkShift(in.Shift, shift, now); err != nil {
		return nil, err
	}

	if err := s.ensureUnlocked(ctx, in.CounterID, businessDate, shift); err != nil {
		return nil, err
	}
	if err := checkEligibility(sl, in, now, businessDate); err != nil {
		return nil, s.rejected(ctx, in, err)
	}
	// A stale caller must re-read before being told the slot is full.
	if in.ExpectedSlotVersion != sl.Version {
		return nil, apperrors.ConcurrentModification("slot %d is at version %d, not %d", sl.ID, sl.Version, in.ExpectedSlotVersion)
	}
	reserveOverride, err := checkCapacity(sl, in)
	if err != nil {
		return nil, s.rejected(ctx, in, err)
	}

	amountDue := sl.Rules.Price
	if in.PriceOverride != nil {
		amountDue = *in.PriceOverride
	}

	b := &Booking{
		Reference:       uuid.NewString(),
		CounterID:       in.CounterID,
		BusinessDate:    businessDate,
		Shift:           shift,
		SlotID:          sl.ID,
		ServiceID:       sl.ServiceID,
		EntityID:        sl.EntityID,
		ServiceName:     sl.Rules.ServiceName,
		Category:        sl.Rules.Category,
		Price:           sl.Rules.Price,
		DurationMinutes: sl.Rules.DurationMinutes,
		SlotDate:        sl.Date,
		StartTime:       sl.StartTime,
		EndTime:         sl.EndTime,
		StartsAt:        sl.StartsAt,
		EndsAt:          sl.EndsAt,
		Devotee:         in.Devotee,
		Payment: Payment{
			AmountDue:       amountDue,
			Status:          PaymentPending,
			PriceOverridden: in.PriceOverride != nil && !sameAmount(*in.PriceOverride, sl.Rules.Price),
		},
		Status:      StatusPending,
		BookingType: in.BookingType,
		CreatedBy:   in.UserID,
	}
	if b.Payment.PriceOverridden {
		b.Payment.OverrideReason = in.OverrideReason
	}
	if in.Payment != nil {
		if err := collect(b, *in.Payment, in.UserID, now, businessDate, shift); err != nil {
			return nil, err
		}
	}

	entries := []AuditEntry{{
		Action:  ActionCreated,
		UserID:  in.UserID,
		At:      now,
		Details: detailsJSON(map[string]interface{}{"status": b.Status, "booking_type": b.BookingType}),
	}}
	if b.Payment.PriceOverridden {
		entries = append(entries, AuditEntry{
			Action:  ActionPriceOverride,
			UserID:  in.UserID,
			At:      now,
			Details: detailsJSON(map[string]interface{}{"list_price": sl.Rules.Price, "charged": amountDue, "reason": in.OverrideReason}),
		})
	}
	if reserveOverride {
		entries = append(entries, AuditEntry{
			Action:  ActionReserveOverride,
			UserID:  in.UserID,
			At:      now,
			Details: detailsJSON(map[string]interface{}{"booked_count": sl.BookedCount, "walk_in_limit": sl.WalkInLimit()}),
		})
	}

	if err := s.repo.Create(ctx, b, in.ExpectedSlotVersion, entries); err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, in.UserID, auditlog.ResourceBooking, b.ID, "BOOKING_CREATED", map[string]interface{}{
		"receipt_number":   b.ReceiptNumber,
		"slot_id":          b.SlotID,
		"status":           b.Status,
		"reserve_override": reserveOverride,
	}, auditlog.StatusSuccess)

	s.emit(events.TypeCreated, b)
	if b.Status == StatusCollected {
		s.emit(events.TypeCollected, b)
	}
	return b, nil
}

func (s *service) rejected(ctx context.Context, in CreateInput, err error) error {
	s.audit.LogAction(ctx, in.UserID, auditlog.ResourceSlot, in.SlotID, "BOOKING_REJECTED", map[string]interface{}{
		"booking_type": in.BookingType,
		"counter_id":   in.CounterID,
		"error":        err.Error(),
	}, auditlog.StatusFailure)
	return err
}

func (s *service) emit(eventType string, b *Booking) {
	s.bus.Publish(events.Event{
		Type:         eventType,
		Resource:     auditlog.ResourceBooking,
		ResourceID:   b.ID,
		CounterID:    b.CounterID,
		BusinessDate: b.BusinessDate,
		Shift:        b.Shift,
		Payload: map[string]interface{}{
			"reference":      b.Reference,
			"receipt_number": b.ReceiptNumber,
			"status":         b.Status,
			"service_name":   b.ServiceName,
			"slot_date":      b.SlotDate,
			"start_time":     b.StartTime,
			"amount_due":     b.Payment.AmountDue,
		},
	})
}

// ======================
// 🔹 Transitions
// ======================

// transition loads the booking, checks the allowed source states and the lock on the counter
// shift open now, applies mutate and persists it conditioned on the status it was read in.
// Figures a transition changes are attributed to that open shift, so a locked earlier shift
// never moves.
func (s *service) transition(ctx context.Context, id uint, userID, action string, allowed []string, mutate func(b *Booking, now time.Time, businessDate, shift string) error) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(b.Status) {
		return nil, apperrors.InvalidState("booking %d is %s and final", id, b.Status)
	}

	now := s.clock()
	businessDate, shift := s.currentScope(now)
	if err := s.ensureUnlocked(ctx, b.CounterID, businessDate, shift); err != nil {
		return nil, err
	}

	permitted := false
	for _, st := range allowed {
		if b.Status == st {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, apperrors.InvalidState("booking %d is %s, %s needs %s", id, b.Status, action, strings.Join(allowed, " or "))
	}

	from := b.Status
	if err := mutate(b, now, businessDate, shift); err != nil {
		return nil, err
	}
	b.UpdatedAt = now

	entry := AuditEntry{
		Action:  action,
		UserID:  userID,
		At:      now,
		Details: detailsJSON(map[string]interface{}{"from": from, "to": b.Status}),
	}
	if err := s.repo.Transition(ctx, b, from, entry); err != nil {
		return nil, err
	}
	b.AuditTrail = append(b.AuditTrail, entry)

	s.audit.LogAction(ctx, userID, auditlog.ResourceBooking, b.ID, "BOOKING_"+action, map[string]interface{}{
		"receipt_number": b.ReceiptNumber,
		"from":           from,
		"to":             b.Status,
	}, auditlog.StatusSuccess)
	return b, nil
}

func (s *service) RecordPayment(ctx context.Context, id uint, in PaymentInput, userID string) (*Booking, error) {
	b, err := s.transition(ctx, id, userID, ActionPaymentCollected, []string{StatusPending}, func(b *Booking, now time.Time, businessDate, shift string) error {
		return collect(b, in, userID, now, businessDate, shift)
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeCollected, b)
	return b, nil
}

func (s *service) CompleteService(ctx context.Context, id uint, userID string) (*Booking, error) {
	b, err := s.transition(ctx, id, userID, ActionCompleted, []string{StatusCollected}, func(b *Booking, _ time.Time, _, _ string) error {
		b.Status = StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeCompleted, b)
	return b, nil
}

// MarkNoShow never gives the slot unit back; the loss is reconciled at settlement.
func (s *service) MarkNoShow(ctx context.Context, id uint, userID string) (*Booking, error) {
	b, err := s.transition(ctx, id, userID, ActionNoShow, []string{StatusPending, StatusCollected}, func(b *Booking, now time.Time, businessDate, shift string) error {
		if now.Before(b.EndsAt) {
			return apperrors.InvalidState("booking %d: slot ends at %s", b.ID, b.EndsAt.Format(time.RFC3339))
		}
		b.Status = StatusNoShow
		b.OutcomeBusinessDate, b.OutcomeShift = businessDate, shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeNoShow, b)
	return b, nil
}

// CancelBooking records the cancellation only. Refunds are handled outside the ledger
// and the slot unit stays consumed.
func (s *service) CancelBooking(ctx context.Context, id uint, reason, userID string) (*Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("cancellation reason is required")
	}

	b, err := s.transition(ctx, id, userID, ActionCancelled, []string{StatusPending, StatusCollected}, func(b *Booking, now time.Time, businessDate, shift string) error {
		if !now.Before(b.StartsAt) {
			return apperrors.InvalidState("booking %d: slot started at %s", b.ID, b.StartsAt.Format(time.RFC3339))
		}
		b.Status = StatusCancelled
		b.CancellationReason = reason
		b.OutcomeBusinessDate, b.OutcomeShift = businessDate, shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeCancelled, b)
	return b, nil
}

// ReprintReceipt is allowed after the shift is locked; it changes nothing but the audit trail.
func (s *service) ReprintReceipt(ctx context.Context, id uint, approverID string) (*Booking, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, apperrors.Validation("reprint requires an approver")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reprints := 0
	for _, e := range b.AuditTrail {
		if e.Action == ActionReprint {
			reprints++
		}
	}

	entry := &AuditEntry{
		BookingID: b.ID,
		Action:    ActionReprint,
		UserID:    approverID,
		At:        s.clock(),
		Details:   detailsJSON(map[string]interface{}{"copy": reprints + 1}),
	}
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}
	b.AuditTrail = append(b.AuditTrail, *entry)

	s.audit.LogAction(ctx, approverID, auditlog.ResourceBooking, b.ID, "BOOKING_REPRINT", map[string]interface{}{
		"receipt_number": b.ReceiptNumber,
		"copy":           reprints + 1,
	}, auditlog.StatusSuccess)
	return b, nil
}

// ======================
// 🔹 Reads
// ======================

func (s *service) GetBooking(ctx context.Context, id uint) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetAuditTrail(ctx context.Context, id uint) ([]AuditEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.AuditTrail(ctx, id)
}

func (s *service) ListBookings(ctx context.Context, filter Filter) ([]Booking, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *service) StatusCounts(ctx context.Context, filter Filter) (StatusCounts, error) {
	return s.repo.CountByStatus(ctx, filter)
}

func (s *service) ListScope(ctx context.Context, counterID, businessDate, shift string) ([]Booking, error) {
	return s.repo.ListByScope(ctx, counterID, businessDate, shift)
}
