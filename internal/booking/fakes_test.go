package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/events"
	"github.com/sharath018/seva-counter-backend/internal/slot"
)

// memStore is an in-memory ledger and slot store with the same atomicity as the gorm repository.
type memStore struct {
	mu       sync.Mutex
	slots    map[uint]*slot.Slot
	bookings map[uint]*Booking
	seqs     map[string]int
	nextID   uint
	nextAud  uint
}

func newMemStore() *memStore {
	return &memStore{
		slots:    map[uint]*slot.Slot{},
		bookings: map[uint]*Booking{},
		seqs:     map[string]int{},
	}
}

func (m *memStore) putSlot(s slot.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.slots[s.ID] = &cp
}

func (m *memStore) GetSlot(_ context.Context, id uint) (*slot.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, apperrors.NotFound("slot %d", id)
	}
	cp := *s
	return cp.Refresh(), nil
}

func (m *memStore) Create(_ context.Context, b *Booking, expectedVersion int, entries []AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.slots[b.SlotID]
	if s == nil || s.Version != expectedVersion || s.Closed || s.BookedCount >= s.Capacity {
		return apperrors.ConcurrentModification("slot %d changed since version %d", b.SlotID, expectedVersion)
	}
	s.BookedCount++
	s.Version++

	key := b.CounterID + "|" + b.BusinessDate
	m.seqs[key]++
	b.ReceiptSequence = m.seqs[key]
	b.ReceiptNumber = FormatReceipt(b.ReceiptSequence)

	m.nextID++
	b.ID = m.nextID
	for i := range entries {
		m.nextAud++
		entries[i].ID = m.nextAud
		entries[i].BookingID = b.ID
	}
	b.AuditTrail = entries

	cp := *b
	cp.AuditTrail = append([]AuditEntry(nil), entries...)
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking %d", id)
	}
	cp := *b
	cp.AuditTrail = append([]AuditEntry(nil), b.AuditTrail...)
	return &cp, nil
}

func (m *memStore) Transition(_ context.Context, b *Booking, from string, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok || stored.Status != from {
		return apperrors.ConcurrentModification("booking %d is no longer %s", b.ID, from)
	}
	trail := append(stored.AuditTrail, entry)
	m.nextAud++
	trail[len(trail)-1].ID = m.nextAud
	trail[len(trail)-1].BookingID = b.ID

	cp := *b
	cp.AuditTrail = trail
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) AppendAudit(_ context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[entry.BookingID]
	if !ok {
		return apperrors.NotFound("booking %d", entry.BookingID)
	}
	m.nextAud++
	entry.ID = m.nextAud
	stored.AuditTrail = append(stored.AuditTrail, *entry)
	return nil
}

func (m *memStore) AuditTrail(ctx context.Context, id uint) ([]AuditEntry, error) {
	b, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.AuditTrail, nil
}

func (m *memStore) matching(f Filter) []Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for id := uint(1); id <= m.nextID; id++ {
		b, ok := m.bookings[id]
		if !ok {
			continue
		}
		if (f.CounterID != "" && b.CounterID != f.CounterID) ||
			(f.BusinessDate != "" && b.BusinessDate != f.BusinessDate) ||
			(f.Shift != "" && b.Shift != f.Shift) ||
			(f.Status != "" && b.Status != f.Status) ||
			(f.BookingType != "" && b.BookingType != f.BookingType) ||
			(f.Search != "" && !strings.Contains(strings.ToLower(b.Devotee.Name), strings.ToLower(f.Search)) && b.ReceiptNumber != f.Search) {
			continue
		}
		out = append(out, *b)
	}
	return out
}

func (m *memStore) List(_ context.Context, f Filter) ([]Booking, int64, error) {
	out := m.matching(f)
	return out, int64(len(out)), nil
}

func (m *memStore) CountByStatus(_ context.Context, f Filter) (StatusCounts, error) {
	f.Status = ""
	var c StatusCounts
	for _, b := range m.matching(f) {
		c.add(b.Status, 1)
	}
	return c, nil
}

func (m *memStore) ListByScope(_ context.Context, counterID, businessDate, shift string) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for id := uint(1); id <= m.nextID; id++ {
		if b, ok := m.bookings[id]; ok && b.TouchesScope(counterID, businessDate, shift) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type lockIndex struct {
	mu     sync.Mutex
	locked map[string]bool
}

func (l *lockIndex) lock(counterID, date, shift string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked == nil {
		l.locked = map[string]bool{}
	}
	l.locked[counterID+"|"+date+"|"+shift] = true
}

func (l *lockIndex) IsLocked(_ context.Context, counterID, date, shift string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked[counterID+"|"+date+"|"+shift], nil
}

type eventLog struct {
	mu  sync.Mutex
	got []events.Event
}

func (e *eventLog) Publish(ev events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
}

func (e *eventLog) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.got))
	for _, ev := range e.got {
		out = append(out, ev.Type)
	}
	return out
}

type nopAudit struct{}

func (nopAudit) LogAction(context.Context, string, string, uint, string, map[string]interface{}, string) {
}

// clock is a settable test clock.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
