package settlement

import (
	"context"
	"sync"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/events"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[uint]*CounterSettlement
	nextID  uint
	lookups int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[uint]*CounterSettlement{}}
}

func (m *memRepo) Create(_ context.Context, s *CounterSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.CounterID == s.CounterID && row.BusinessDate == s.BusinessDate && row.Shift == s.Shift {
			return apperrors.ConcurrentModification("duplicate scope")
		}
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memRepo) Refresh(_ context.Context, s *CounterSettlement, from string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[s.ID]
	if !ok || row.Status != from {
		return apperrors.ConcurrentModification("settlement %d is no longer %s", s.ID, from)
	}
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uint) (*CounterSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("settlement %d", id)
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) GetByScope(_ context.Context, counterID, businessDate, shift string) (*CounterSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.CounterID == counterID && row.BusinessDate == businessDate && row.Shift == shift {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("settlement %s %s %s", counterID, businessDate, shift)
}

func (m *memRepo) List(_ context.Context, f Filter) ([]CounterSettlement, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CounterSettlement
	for id := uint(1); id <= m.nextID; id++ {
		row, ok := m.rows[id]
		if !ok || (f.CounterID != "" && row.CounterID != f.CounterID) || (f.Status != "" && row.Status != f.Status) {
			continue
		}
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (m *memRepo) IsLocked(_ context.Context, counterID, businessDate, shift string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, row := range m.rows {
		if row.CounterID == counterID && row.BusinessDate == businessDate && row.Shift == shift {
			return row.IsLocked, nil
		}
	}
	return false, nil
}

// ledger serves a fixed set of bookings per scope.
type ledger struct {
	mu       sync.Mutex
	bookings []booking.Booking
}

func (l *ledger) add(b booking.Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bookings = append(l.bookings, b)
}

func (l *ledger) ListScope(_ context.Context, counterID, businessDate, shift string) ([]booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []booking.Booking
	for _, b := range l.bookings {
		if b.TouchesScope(counterID, businessDate, shift) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memCache struct {
	mu   sync.Mutex
	keys map[string]bool
	hits int
}

func (c *memCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		c.hits++
	}
	return c.keys[key], nil
}

func (c *memCache) Add(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = map[string]bool{}
	}
	c.keys[key] = true
	return nil
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
	var out []string
	for _, ev := range e.got {
		out = append(out, ev.Type)
	}
	return out
}

type nopAudit struct{}

func (nopAudit) LogAction(context.Context, string, string, uint, string, map[string]interface{}, string) {
}
