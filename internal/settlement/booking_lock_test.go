package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/slot"
)

// bookingStore is a minimal booking repository and slot reader for running the ledger
// against a real lock index.
type bookingStore struct {
	mu       sync.Mutex
	slots    map[uint]slot.Slot
	bookings map[uint]booking.Booking
	nextID   uint
}

func newBookingStore(slots ...slot.Slot) *bookingStore {
	st := &bookingStore{slots: map[uint]slot.Slot{}, bookings: map[uint]booking.Booking{}}
	for _, sl := range slots {
		st.slots[sl.ID] = sl
	}
	return st
}

func (m *bookingStore) GetSlot(_ context.Context, id uint) (*slot.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[id]
	if !ok {
		return nil, apperrors.NotFound("slot %d", id)
	}
	return sl.Refresh(), nil
}

func (m *bookingStore) Create(_ context.Context, b *booking.Booking, expectedVersion int, entries []booking.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl := m.slots[b.SlotID]
	if sl.Version != expectedVersion {
		return apperrors.ConcurrentModification("slot %d changed", b.SlotID)
	}
	sl.BookedCount++
	sl.Version++
	m.slots[b.SlotID] = sl

	m.nextID++
	b.ID = m.nextID
	b.ReceiptSequence = int(b.ID)
	b.ReceiptNumber = booking.FormatReceipt(b.ReceiptSequence)
	b.AuditTrail = entries
	m.bookings[b.ID] = *b
	return nil
}

func (m *bookingStore) GetByID(_ context.Context, id uint) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking %d", id)
	}
	return &b, nil
}

func (m *bookingStore) Transition(_ context.Context, b *booking.Booking, from string, entry booking.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bookings[b.ID].Status != from {
		return apperrors.ConcurrentModification("booking %d is no longer %s", b.ID, from)
	}
	cp := *b
	cp.AuditTrail = append(cp.AuditTrail, entry)
	m.bookings[b.ID] = cp
	return nil
}

func (m *bookingStore) AppendAudit(_ context.Context, entry *booking.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[entry.BookingID]
	b.AuditTrail = append(b.AuditTrail, *entry)
	m.bookings[entry.BookingID] = b
	return nil
}

func (m *bookingStore) AuditTrail(ctx context.Context, id uint) ([]booking.AuditEntry, error) {
	b, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.AuditTrail, nil
}

func (m *bookingStore) List(context.Context, booking.Filter) ([]booking.Booking, int64, error) {
	return nil, 0, nil
}

func (m *bookingStore) CountByStatus(context.Context, booking.Filter) (booking.StatusCounts, error) {
	return booking.StatusCounts{}, nil
}

func (m *bookingStore) ListByScope(_ context.Context, counterID, businessDate, shift string) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for id := uint(1); id <= m.nextID; id++ {
		if b := m.bookings[id]; b.TouchesScope(counterID, businessDate, shift) {
			out = append(out, b)
		}
	}
	return out, nil
}

func counterSlot(id uint, start time.Time) slot.Slot {
	return slot.Slot{
		ID:        id,
		ServiceID: 1,
		EntityID:  1,
		Date:      start.Format(slot.DateLayout),
		StartTime: start.Format("15:04"),
		EndTime:   start.Add(time.Hour).Format("15:04"),
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Capacity:  20,
		Version:   1,
		Rules: slot.Rules{
			ServiceName:   "Archana",
			Price:         250,
			MinDevotees:   1,
			MaxDevotees:   5,
			WalkInAllowed: true,
		},
	}
}

func TestLockedSettlementFreezesLedgerShift(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := newBookingStore(
		counterSlot(1, time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)),
		counterSlot(2, time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)),
	)
	repo := newMemRepo()
	idx := NewLockIndex(repo, &memCache{})
	shifts, err := booking.ParseShifts("MORNING=05:00-13:00,EVENING=13:00-22:00")
	require.NoError(t, err)

	ledgerSvc := booking.NewService(store, store, idx, nil, nopAudit{}, time.UTC, shifts, booking.WithClock(clock))
	svc := NewService(repo, ledgerSvc, MeanEstimator{}, nil, nopAudit{}, 0, WithClock(clock), WithLockIndex(idx))

	create := func(slotID uint, bookingType string, pay *booking.PaymentInput) (*booking.Booking, error) {
		sl, err := store.GetSlot(ctx, slotID)
		require.NoError(t, err)
		return ledgerSvc.CreateBooking(ctx, booking.CreateInput{
			SlotID:              slotID,
			ExpectedSlotVersion: sl.Version,
			Devotee:             booking.Devotee{Name: "Lakshmi", PartySize: 1},
			BookingType:         bookingType,
			CounterID:           "C1",
			UserID:              "staff-1",
			Payment:             pay,
		})
	}

	_, err = create(1, booking.TypeWalkIn, &booking.PaymentInput{Mode: booking.ModeCash})
	require.NoError(t, err)
	later, err := create(2, booking.TypePreBooked, nil)
	require.NoError(t, err)

	morning, err := svc.BuildSettlement(ctx, BuildInput{CounterID: "C1", BusinessDate: "2026-10-16", Shift: "MORNING", UserID: "staff-1"})
	require.NoError(t, err)
	_, err = svc.SubmitSettlement(ctx, morning.ID, 250, "staff-1")
	require.NoError(t, err)
	_, err = svc.LockSettlement(ctx, morning.ID, "sup-1")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = create(1, booking.TypeWalkIn, &booking.PaymentInput{Mode: booking.ModeCash})
	assert.True(t, errors.Is(err, apperrors.ErrSettlementLocked))
	_, err = ledgerSvc.RecordPayment(ctx, later.ID, booking.PaymentInput{Mode: booking.ModeCash}, "staff-1")
	assert.True(t, errors.Is(err, apperrors.ErrSettlementLocked))

	// the evening shift takes the money without touching the locked figures
	now = time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	paid, err := ledgerSvc.RecordPayment(ctx, later.ID, booking.PaymentInput{Mode: booking.ModeCash}, "staff-2")
	require.NoError(t, err)
	assert.Equal(t, "EVENING", paid.Payment.Shift)

	evening, err := svc.BuildSettlement(ctx, BuildInput{CounterID: "C1", BusinessDate: "2026-10-16", Shift: "EVENING", UserID: "staff-2"})
	require.NoError(t, err)
	assert.Equal(t, 250.0, evening.SystemCashTotal)
	assert.Equal(t, 0, evening.BookingsCount)
	assert.Equal(t, 1, evening.CashBookings)

	frozen, err := svc.GetSettlement(ctx, morning.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, frozen.SystemCashTotal)
	assert.Equal(t, 2, frozen.BookingsCount)

	_, scope, err := svc.ScopeBookings(ctx, morning.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, aggregate(scope, "2026-10-16", "MORNING").cash)
}
