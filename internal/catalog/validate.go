package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

var validate = validator.New()

// ParseClock parses an "HH:MM" time of day into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Validate checks the struct tags first, then the cross-field rules tags cannot express.
func (d *ServiceDefinition) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return apperrors.Validation("%s", strings.Join(parts, "; "))
		}
		return apperrors.Validation("%s", err.Error())
	}

	if d.MinDevotees > d.MaxDevotees {
		return apperrors.Validation("min_devotees %d exceeds max_devotees %d", d.MinDevotees, d.MaxDevotees)
	}

	return validateWindows(d.TimeWindows)
}

func validateWindows(windows []TimeWindow) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(windows))
	for i, w := range windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			return apperrors.Validation("time_windows[%d]: %v", i, err)
		}
		end, err := ParseClock(w.End)
		if err != nil {
			return apperrors.Validation("time_windows[%d]: %v", i, err)
		}
		if start >= end {
			return apperrors.Validation("time_windows[%d]: start %s must be before end %s", i, w.Start, w.End)
		}
		spans = append(spans, span{start, end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return apperrors.Validation("time windows overlap")
		}
	}
	return nil
}

// normalize fills defaults that depend on other fields.
func (d *ServiceDefinition) normalize() {
	if !d.WalkInAllowed {
		d.WalkInReservedPercentage = 0
	}
	if d.RequiresIdentityAttribute && d.IdentityAttributeLabel == "" {
		d.IdentityAttributeLabel = "gotra"
	}
	if d.MinDevotees == 0 {
		d.MinDevotees = 1
	}
	if d.MaxDevotees == 0 {
		d.MaxDevotees = d.MinDevotees
	}
}

func (d *ServiceDefinition) apply(p ServicePatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.LocalizedName != nil {
		d.LocalizedName = *p.LocalizedName
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Price != nil {
		d.Price = *p.Price
	}
	if p.DurationMinutes != nil {
		d.DurationMinutes = *p.DurationMinutes
	}
	if p.Capacity != nil {
		d.Capacity = *p.Capacity
	}
	if p.Weekdays != nil {
		d.Weekdays = *p.Weekdays
	}
	if p.TimeWindows != nil {
		d.TimeWindows = *p.TimeWindows
	}
	if p.MinDevotees != nil {
		d.MinDevotees = *p.MinDevotees
	}
	if p.MaxDevotees != nil {
		d.MaxDevotees = *p.MaxDevotees
	}
	if p.RequiresIdentityAttribute != nil {
		d.RequiresIdentityAttribute = *p.RequiresIdentityAttribute
	}
	if p.IdentityAttributeLabel != nil {
		d.IdentityAttributeLabel = *p.IdentityAttributeLabel
	}
	if p.AdvanceBookingRequired != nil {
		d.AdvanceBookingRequired = *p.AdvanceBookingRequired
	}
	if p.AdvanceBookingDaysAhead != nil {
		d.AdvanceBookingDaysAhead = *p.AdvanceBookingDaysAhead
	}
	if p.WalkInAllowed != nil {
		d.WalkInAllowed = *p.WalkInAllowed
	}
	if p.WalkInReservedPercentage != nil {
		d.WalkInReservedPercentage = *p.WalkInReservedPercentage
	}
	if p.IsPriority != nil {
		d.IsPriority = *p.IsPriority
	}
}

// RunsOn reports whether the service is scheduled on the weekday.
func (d *ServiceDefinition) RunsOn(day time.Weekday) bool {
	for _, w := range d.Weekdays {
		if w == int(day) {
			return true
		}
	}
	return false
}
