package maintenance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record holds the maintenance parameters of a single device.
type Record struct {
	ID               string
	DeviceID         string
	FirstMaintenance *time.Time
	IntervalDays     int
	Cost             decimal.Decimal
	EndOfLife        *time.Time
}

// HasSchedule reports whether the record carries enough data to project
// occurrences: a first maintenance date and a positive interval.
func (r Record) HasSchedule() bool {
	return r.FirstMaintenance != nil && !r.FirstMaintenance.IsZero() && r.IntervalDays > 0
}

// Projector walks maintenance schedules forward from their first date.
type Projector struct {
	location          *time.Location
	clipCostAtRetired bool
}

// Option configures a Projector.
type Option func(*Projector)

// WithEndOfLifeCostClipping makes CostForQuarter skip occurrences that fall
// after a record's end-of-life date. NextDate always honours end-of-life.
func WithEndOfLifeCostClipping(enabled bool) Option {
	return func(p *Projector) {
		p.clipCostAtRetired = enabled
	}
}

// NewProjector constructs a Projector that normalizes all instants to loc.
// If loc is nil, UTC is used.
func NewProjector(loc *time.Location, opts ...Option) *Projector {
	if loc == nil {
		loc = time.UTC
	}
	p := &Projector{location: loc}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Location returns the time zone the projector computes in.
func (p *Projector) Location() *time.Location {
	if p == nil || p.location == nil {
		return time.UTC
	}
	return p.location
}

// NextDate returns the first scheduled occurrence at or after now.
//
// The second return value is false when the schedule is undetermined (no
// first date or no positive interval), when the device is already past its
// end-of-life, or when the next occurrence would fall after end-of-life.
// Steps are whole calendar days in the projector location.
func (p *Projector) NextDate(record Record, now time.Time) (time.Time, bool) {
	if !record.HasSchedule() {
		return time.Time{}, false
	}
	loc := p.Location()
	now = now.In(loc)

	var endOfLife time.Time
	hasEndOfLife := record.EndOfLife != nil && !record.EndOfLife.IsZero()
	if hasEndOfLife {
		endOfLife = record.EndOfLife.In(loc)
		if now.After(endOfLife) {
			return time.Time{}, false
		}
	}

	candidate := firstOnOrAfter(record.FirstMaintenance.In(loc), record.IntervalDays, now)
	if hasEndOfLife && candidate.After(endOfLife) {
		return time.Time{}, false
	}
	return candidate, true
}

// QuarterBounds returns the first instant and the inclusive last second of the
// calendar quarter containing t.
func (p *Projector) QuarterBounds(t time.Time) (time.Time, time.Time) {
	return quarterBounds(t, p.Location())
}

// Occurrences lists every scheduled date within the inclusive window [from, to].
func (p *Projector) Occurrences(record Record, from, to time.Time) []time.Time {
	if !record.HasSchedule() {
		return nil
	}
	loc := p.Location()
	from = from.In(loc)
	to = to.In(loc)
	if to.Before(from) {
		return nil
	}

	occurrences := make([]time.Time, 0)
	current := firstOnOrAfter(record.FirstMaintenance.In(loc), record.IntervalDays, from)
	for !current.After(to) {
		occurrences = append(occurrences, current)
		current = current.AddDate(0, 0, record.IntervalDays)
	}
	return occurrences
}

// CostForQuarter sums the cost of every occurrence that falls inside the
// quarter containing now. Records without a schedule contribute nothing.
//
// End-of-life is ignored unless the projector was built with
// WithEndOfLifeCostClipping(true).
func (p *Projector) CostForQuarter(records []Record, now time.Time) decimal.Decimal {
	start, end := p.QuarterBounds(now)
	total := decimal.Zero
	for _, record := range records {
		occurrences := p.Occurrences(record, start, end)
		if p.clipCostAtRetired && record.EndOfLife != nil && !record.EndOfLife.IsZero() {
			occurrences = notAfter(occurrences, record.EndOfLife.In(p.Location()))
		}
		if len(occurrences) == 0 {
			continue
		}
		total = total.Add(record.Cost.Mul(decimal.NewFromInt(int64(len(occurrences)))))
	}
	return total
}

// firstOnOrAfter returns first + k*intervalDays for the smallest k >= 0 that is
// not before bound. The step count is estimated from the elapsed hours and
// backed off by one so that DST shifts never skip an occurrence.
func firstOnOrAfter(first time.Time, intervalDays int, bound time.Time) time.Time {
	if !first.Before(bound) {
		return first
	}
	elapsedDays := int(bound.Sub(first).Hours() / 24)
	steps := elapsedDays/intervalDays - 1
	if steps < 0 {
		steps = 0
	}

	candidate := first.AddDate(0, 0, steps*intervalDays)
	for candidate.Before(bound) {
		candidate = candidate.AddDate(0, 0, intervalDays)
	}
	return candidate
}

func quarterBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	firstMonth := time.Month((int(t.Month())-1)/3*3 + 1)
	start := time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, loc)
	// Day 0 of the month after the quarter is the quarter's last day.
	end := time.Date(t.Year(), firstMonth+3, 0, 23, 59, 59, 0, loc)
	return start, end
}

func notAfter(dates []time.Time, limit time.Time) []time.Time {
	kept := dates[:0]
	for _, d := range dates {
		if d.After(limit) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
