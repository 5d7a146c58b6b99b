package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/sharath018/seva-counter-backend/internal/catalog"
)

type shiftWindow struct {
	name       string
	start, end int // minutes after midnight, end exclusive
}

// Shifts maps a time of day onto the counter shift it belongs to.
type Shifts struct {
	windows []shiftWindow
}

// ParseShifts reads "MORNING=05:00-13:00,EVENING=13:00-22:00". An empty string is valid
// and resolves everything to DefaultShift.
func ParseShifts(raw string) (*Shifts, error) {
	s := &Shifts{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, window, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("shift %q: expected NAME=HH:MM-HH:MM", part)
		}
		from, to, ok := strings.Cut(window, "-")
		if !ok {
			return nil, fmt.Errorf("shift %q: expected NAME=HH:MM-HH:MM", part)
		}

		start, err := catalog.ParseClock(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("shift %q: %w", part, err)
		}
		end, err := catalog.ParseClock(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("shift %q: %w", part, err)
		}
		if start >= end {
			return nil, fmt.Errorf("shift %q: start must be before end", part)
		}

		s.windows = append(s.windows, shiftWindow{name: strings.ToUpper(strings.TrimSpace(name)), start: start, end: end})
	}
	return s, nil
}

// Resolve returns the first shift containing t's time of day.
func (s *Shifts) Resolve(t time.Time) string {
	if s == nil {
		return DefaultShift
	}
	minute := t.Hour()*60 + t.Minute()
	for _, w := range s.windows {
		if minute >= w.start && minute < w.end {
			return w.name
		}
	}
	return DefaultShift
}

// Has reports whether name is a configured shift. DefaultShift is always known.
func (s *Shifts) Has(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == DefaultShift {
		return true
	}
	if s == nil {
		return false
	}
	for _, w := range s.windows {
		if w.name == name {
			return true
		}
	}
	return false
}
