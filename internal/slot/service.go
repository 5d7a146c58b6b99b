package slot

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/catalog"
)

// ServiceSource is the catalog read side the allocator needs.
type ServiceSource interface {
	GetService(ctx context.Context, id uint) (*catalog.ServiceDefinition, error)
	ListActiveServices(ctx context.Context, entityID uint) ([]catalog.ServiceDefinition, error)
}

type Service interface {
	GenerateSlots(ctx context.Context, serviceID uint, from, to string) (*GenerationResult, error)
	GenerateHorizon(ctx context.Context) ([]GenerationResult, error)
	GetSlot(ctx context.Context, id uint) (*Slot, error)
	ListAvailableSlots(ctx context.Context, serviceID uint, date string) ([]Slot, error)
	ListSlots(ctx context.Context, serviceID uint, date string) ([]Slot, error)
	CloseSlot(ctx context.Context, id uint, expectedVersion int, userID string) (*Slot, error)
	ReopenSlot(ctx context.Context, id uint, expectedVersion int, userID string) (*Slot, error)
}

type service struct {
	repo        Repository
	catalog     ServiceSource
	audit       auditlog.Recorder
	loc         *time.Location
	horizonDays int
	now         func() time.Time
}

type Option func(*service)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, source ServiceSource, audit auditlog.Recorder, loc *time.Location, horizonDays int, opts ...Option) Service {
	if loc == nil {
		loc = time.UTC
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	s := &service{
		repo:        repo,
		catalog:     source,
		audit:       audit,
		loc:         loc,
		horizonDays: horizonDays,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) parseDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid date %q, expected YYYY-MM-DD", v)
	}
	return d, nil
}

// GenerateSlots materialises one slot per configured window for each scheduled date in [from, to].
// Re-running over the same range creates nothing new.
func (s *service) GenerateSlots(ctx context.Context, serviceID uint, from, to string) (*GenerationResult, error) {
	start, err := s.parseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := s.parseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, apperrors.Validation("date range ends before it starts")
	}
	if days := int(math.Round(end.Sub(start).Hours()/24)) + 1; days > MaxGenerationDays {
		return nil, apperrors.Validation("date range of %d days exceeds %d", days, MaxGenerationDays)
	}

	def, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, def, start, end)
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "", auditlog.ResourceService, serviceID, "SLOTS_GENERATED", map[string]interface{}{
		"from":    from,
		"to":      to,
		"created": result.Created,
		"skipped": result.Skipped,
	}, auditlog.StatusSuccess)
	return result, nil
}

func (s *service) generate(ctx context.Context, def *catalog.ServiceDefinition, start, end time.Time) (*GenerationResult, error) {
	result := &GenerationResult{ServiceID: def.ID}
	if !def.IsActive {
		return result, nil
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !def.RunsOn(d.Weekday()) {
			continue
		}

		date := d.Format(DateLayout)
		existing, err := s.repo.ExistingStartTimes(ctx, def.ID, date)
		if err != nil {
			return nil, fmt.Errorf("load slots for %s: %w", date, err)
		}

		for _, w := range def.TimeWindows {
			if existing[w.Start] {
				result.Skipped++
				continue
			}

			slot, err := s.newSlot(def, d, w)
			if err != nil {
				return nil, err
			}
			created, err := s.repo.CreateIfAbsent(ctx, slot)
			if err != nil {
				return nil, fmt.Errorf("create slot %s %s: %w", date, w.Start, err)
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
	}
	return result, nil
}

func (s *service) newSlot(def *catalog.ServiceDefinition, day time.Time, w catalog.TimeWindow) (*Slot, error) {
	startMin, err := catalog.ParseClock(w.Start)
	if err != nil {
		return nil, apperrors.Validation("service %d: %v", def.ID, err)
	}
	endMin, err := catalog.ParseClock(w.End)
	if err != nil {
		return nil, apperrors.Validation("service %d: %v", def.ID, err)
	}

	reserved := 0
	if def.WalkInAllowed {
		reserved = def.Capacity * def.WalkInReservedPercentage / 100
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	slot := &Slot{
		ServiceID:       def.ID,
		EntityID:        def.EntityID,
		Date:            day.Format(DateLayout),
		StartTime:       w.Start,
		EndTime:         w.End,
		StartsAt:        midnight.Add(time.Duration(startMin) * time.Minute),
		EndsAt:          midnight.Add(time.Duration(endMin) * time.Minute),
		Capacity:        def.Capacity,
		BookedCount:     0,
		WalkInReserved:  reserved,
		Version:         1,
		OverrideAllowed: def.IsPriority,
		Rules: Rules{
			ServiceName:               def.Name,
			LocalizedName:             def.LocalizedName,
			Category:                  def.Category,
			Price:                     def.Price,
			DurationMinutes:           def.DurationMinutes,
			MinDevotees:               def.MinDevotees,
			MaxDevotees:               def.MaxDevotees,
			RequiresIdentityAttribute: def.RequiresIdentityAttribute,
			IdentityAttributeLabel:    def.IdentityAttributeLabel,
			WalkInAllowed:             def.WalkInAllowed,
			AdvanceBookingRequired:    def.AdvanceBookingRequired,
			AdvanceBookingDaysAhead:   def.AdvanceBookingDaysAhead,
			ServiceRevision:           def.Revision,
		},
	}
	return slot.Refresh(), nil
}

// GenerateHorizon covers today through today+horizonDays-1 for every active service.
func (s *service) GenerateHorizon(ctx context.Context) ([]GenerationResult, error) {
	defs, err := s.catalog.ListActiveServices(ctx, 0)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, s.horizonDays-1)

	results := make([]GenerationResult, 0, len(defs))
	for i := range defs {
		res, err := s.generate(ctx, &defs[i], start, end)
		if err != nil {
			log.Printf("❌ horizon generation failed for service %d: %v", defs[i].ID, err)
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *service) GetSlot(ctx context.Context, id uint) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListSlots(ctx context.Context, serviceID uint, date string) ([]Slot, error) {
	if _, err := s.parseDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListByServiceDate(ctx, serviceID, date)
}

func (s *service) ListAvailableSlots(ctx context.Context, serviceID uint, date string) ([]Slot, error) {
	slots, err := s.ListSlots(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	available := make([]Slot, 0, len(slots))
	for _, sl := range slots {
		if sl.Status == StatusFull || sl.Status == StatusClosed {
			continue
		}
		available = append(available, sl)
	}
	return available, nil
}

func (s *service) CloseSlot(ctx context.Context, id uint, expectedVersion int, userID string) (*Slot, error) {
	return s.setClosed(ctx, id, expectedVersion, true, userID)
}

func (s *service) ReopenSlot(ctx context.Context, id uint, expectedVersion int, userID string) (*Slot, error) {
	return s.setClosed(ctx, id, expectedVersion, false, userID)
}

func (s *service) setClosed(ctx context.Context, id uint, expectedVersion int, closed bool, userID string) (*Slot, error) {
	action := "SLOT_REOPENED"
	if closed {
		action = "SLOT_CLOSED"
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Closed == closed {
		return nil, apperrors.InvalidState("slot %d is already %s", id, current.Refresh().Status)
	}

	if err := s.repo.SetClosed(ctx, id, expectedVersion, closed); err != nil {
		s.audit.LogAction(ctx, userID, auditlog.ResourceSlot, id, action+"_FAILED", map[string]interface{}{
			"expected_version": expectedVersion,
			"error":            err.Error(),
		}, auditlog.StatusFailure)
		return nil, err
	}

	s.audit.LogAction(ctx, userID, auditlog.ResourceSlot, id, action, map[string]interface{}{
		"version": expectedVersion + 1,
	}, auditlog.StatusSuccess)
	return s.repo.GetByID(ctx, id)
}
