package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/events"
	"github.com/sharath018/seva-counter-backend/internal/slot"
)

// BookingSource is the ledger read side a settlement is built from.
type BookingSource interface {
	ListScope(ctx context.Context, counterID, businessDate, shift string) ([]booking.Booking, error)
}

type Service interface {
	BuildSettlement(ctx context.Context, in BuildInput) (*CounterSettlement, error)
	SubmitSettlement(ctx context.Context, id uint, physicalCashCount float64, userID string) (*CounterSettlement, error)
	LockSettlement(ctx context.Context, id uint, approverID string) (*CounterSettlement, error)
	IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error)

	GetSettlement(ctx context.Context, id uint) (*CounterSettlement, error)
	ListSettlements(ctx context.Context, filter Filter) ([]CounterSettlement, int64, error)
	ScopeBookings(ctx context.Context, id uint) (*CounterSettlement, []booking.Booking, error)
}

type service struct {
	repo          Repository
	bookings      BookingSource
	locks         *LockIndex
	estimator     RevenueLossEstimator
	bus           events.Publisher
	audit         auditlog.Recorder
	defaultTarget float64
	now           func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLockIndex shares idx with the ledger so locks recorded here reach its cache.
func WithLockIndex(idx *LockIndex) Option {
	return func(s *service) { s.locks = idx }
}

func NewService(repo Repository, bookings BookingSource, estimator RevenueLossEstimator, bus events.Publisher, audit auditlog.Recorder, defaultTarget float64, opts ...Option) Service {
	if estimator == nil {
		estimator = MeanEstimator{}
	}
	if bus == nil {
		bus = events.Nop{}
	}
	s := &service{
		repo:          repo,
		bookings:      bookings,
		locks:         NewLockIndex(repo, nil),
		estimator:     estimator,
		bus:           bus,
		audit:         audit,
		defaultTarget: defaultTarget,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateBuild(in *BuildInput) error {
	in.CounterID = strings.TrimSpace(in.CounterID)
	in.Shift = strings.ToUpper(strings.TrimSpace(in.Shift))
	switch {
	case in.CounterID == "":
		return apperrors.Validation("counter_id is required")
	case in.Shift == "":
		return apperrors.Validation("shift is required")
	case in.OpeningBalance < 0:
		return apperrors.Validation("opening balance must not be negative")
	case in.TargetRevenue != nil && *in.TargetRevenue < 0:
		return apperrors.Validation("target revenue must not be negative")
	}
	if _, err := time.Parse(slot.DateLayout, in.BusinessDate); err != nil {
		return apperrors.Validation("business_date must be YYYY-MM-DD")
	}
	return nil
}

// recompute pulls every booking the shift touched and rewrites every ledger-derived figure on s.
func (s *service) recompute(ctx context.Context, st *CounterSettlement) ([]booking.Booking, error) {
	scope, err := s.bookings.ListScope(ctx, st.CounterID, st.BusinessDate, st.Shift)
	if err != nil {
		return nil, err
	}
	t := aggregate(scope, st.BusinessDate, st.Shift)
	t.apply(st)
	st.NoShowRevenueLoss = s.estimator.Estimate(t.noShows, scope)
	st.LossEstimator = s.estimator.Name()
	return scope, nil
}

// BuildSettlement creates or refreshes the DRAFT for a scope.
func (s *service) BuildSettlement(ctx context.Context, in BuildInput) (*CounterSettlement, error) {
	if err := validateBuild(&in); err != nil {
		return nil, err
	}

	st, err := s.repo.GetByScope(ctx, in.CounterID, in.BusinessDate, in.Shift)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		st = &CounterSettlement{CounterID: in.CounterID, BusinessDate: in.BusinessDate, Shift: in.Shift}
	case err != nil:
		return nil, err
	case st.IsLocked:
		return nil, apperrors.SettlementLocked("settlement %d is locked", st.ID)
	case st.Status != StatusDraft:
		return nil, apperrors.InvalidState("settlement %d is %s and can no longer be rebuilt", st.ID, st.Status)
	}

	st.CounterName = in.CounterName
	st.OpeningBalance = in.OpeningBalance
	st.TargetRevenue = s.defaultTarget
	if in.TargetRevenue != nil {
		st.TargetRevenue = *in.TargetRevenue
	}
	st.Status = StatusDraft
	st.BuiltBy = in.UserID
	st.UpdatedAt = s.now()

	if _, err := s.recompute(ctx, st); err != nil {
		return nil, err
	}

	if st.ID == 0 {
		err = s.repo.Create(ctx, st)
	} else {
		err = s.repo.Refresh(ctx, st, StatusDraft)
	}
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, in.UserID, auditlog.ResourceSettlement, st.ID, "SETTLEMENT_BUILT", map[string]interface{}{
		"counter_id":    st.CounterID,
		"business_date": st.BusinessDate,
		"shift":         st.Shift,
		"total_revenue": st.TotalRevenue,
	}, auditlog.StatusSuccess)
	return st, nil
}

// SubmitSettlement refreshes the ledger figures and records the operator's cash count.
func (s *service) SubmitSettlement(ctx context.Context, id uint, physicalCashCount float64, userID string) (*CounterSettlement, error) {
	if physicalCashCount < 0 {
		return nil, apperrors.Validation("physical cash count must not be negative")
	}

	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.IsLocked {
		return nil, apperrors.SettlementLocked("settlement %d is locked", id)
	}
	if st.Status != StatusDraft {
		return nil, apperrors.InvalidState("settlement %d is %s, submit needs %s", id, st.Status, StatusDraft)
	}

	if _, err := s.recompute(ctx, st); err != nil {
		return nil, err
	}

	now := s.now()
	count := round2(physicalCashCount)
	st.PhysicalCashCount = &count
	st.Variance = round2(count - st.SystemCashTotal)
	st.Status = StatusSubmitted
	st.SubmittedBy = userID
	st.SubmittedAt = &now
	st.UpdatedAt = now

	if err := s.repo.Refresh(ctx, st, StatusDraft); err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, userID, auditlog.ResourceSettlement, st.ID, "SETTLEMENT_SUBMITTED", map[string]interface{}{
		"system_cash_total": st.SystemCashTotal,
		"physical_count":    count,
		"variance":          st.Variance,
	}, auditlog.StatusSuccess)
	s.emit(events.TypeSettlementSubmitted, st)
	return st, nil
}

// LockSettlement freezes the scope; no booking in it may change afterwards.
func (s *service) LockSettlement(ctx context.Context, id uint, approverID string) (*CounterSettlement, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, apperrors.Validation("locking requires an approver")
	}

	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.IsLocked {
		return nil, apperrors.SettlementLocked("settlement %d is already locked", id)
	}
	if st.Status != StatusSubmitted {
		return nil, apperrors.InvalidState("settlement %d is %s, lock needs %s", id, st.Status, StatusSubmitted)
	}

	now := s.now()
	st.Status = StatusLocked
	st.IsLocked = true
	st.LockedBy = approverID
	st.LockedAt = &now
	st.UpdatedAt = now

	if err := s.repo.Refresh(ctx, st, StatusSubmitted); err != nil {
		return nil, err
	}
	s.locks.remember(ctx, scopeKey(st.CounterID, st.BusinessDate, st.Shift))

	s.audit.LogAction(ctx, approverID, auditlog.ResourceSettlement, st.ID, "SETTLEMENT_LOCKED", map[string]interface{}{
		"counter_id":    st.CounterID,
		"business_date": st.BusinessDate,
		"shift":         st.Shift,
		"variance":      st.Variance,
	}, auditlog.StatusSuccess)
	s.emit(events.TypeSettlementLocked, st)
	return st, nil
}

func (s *service) IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error) {
	return s.locks.IsLocked(ctx, counterID, businessDate, shift)
}

func (s *service) emit(eventType string, st *CounterSettlement) {
	s.bus.Publish(events.Event{
		Type:         eventType,
		Resource:     auditlog.ResourceSettlement,
		ResourceID:   st.ID,
		CounterID:    st.CounterID,
		BusinessDate: st.BusinessDate,
		Shift:        st.Shift,
		Payload: map[string]interface{}{
			"status":            st.Status,
			"total_revenue":     st.TotalRevenue,
			"system_cash_total": st.SystemCashTotal,
			"variance":          st.Variance,
		},
	})
}

func (s *service) GetSettlement(ctx context.Context, id uint) (*CounterSettlement, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListSettlements(ctx context.Context, filter Filter) ([]CounterSettlement, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// ScopeBookings returns the settlement with the bookings it covers, for export.
func (s *service) ScopeBookings(ctx context.Context, id uint) (*CounterSettlement, []booking.Booking, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	scope, err := s.bookings.ListScope(ctx, st.CounterID, st.BusinessDate, st.Shift)
	if err != nil {
		return nil, nil, err
	}
	return st, scope, nil
}
