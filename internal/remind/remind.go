// Package remind decides when a tracked item is due again and describes its
// reminder rule.
//
// Everything here is a pure function of its arguments. Callers supply "now"
// and re-check on whatever cadence they like.
package remind

import (
	"strconv"
	"time"

	"github.com/pbaille/since/internal/domain"
	"golang.org/x/text/language"
)

// NextDueDate returns when an item whose last event happened at since becomes
// due. ok is false when reminders are off.
//
// Minute and hour intervals are added as elapsed time. Day and week intervals
// move the wall clock in loc, month and year intervals clamp the day of month
// (Jan 31 + 1 month is Feb 28 or 29). Day-scale results are then moved to the
// time of day of cfg.RemindAt in loc.
func NextDueDate(since time.Time, cfg domain.RemindConfig, loc *time.Location) (due time.Time, ok bool) {
	if !cfg.Reminding {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	n := cfg.Interval()
	switch cfg.TimeUnits {
	case domain.UnitMinute:
		return since.Add(time.Duration(n) * time.Minute), true
	case domain.UnitHour:
		return since.Add(time.Duration(n) * time.Hour), true
	}

	added := AddUnits(since.In(loc), cfg.TimeUnits, n)
	if aligned, ok := alignTimeOfDay(added, cfg.RemindAt, loc); ok {
		return aligned, true
	}
	return added, true
}

// IsDue reports whether now has reached the next due date after lastEvent.
// Once due, an item stays due for every later now until lastEvent changes.
func IsDue(now, lastEvent time.Time, cfg domain.RemindConfig, loc *time.Location) bool {
	due, ok := NextDueDate(lastEvent, cfg, loc)
	if !ok {
		return false
	}
	return !now.Before(due)
}

// AddUnits adds n calendar units to t in t's location.
func AddUnits(t time.Time, u domain.Unit, n int) time.Time {
	switch u {
	case domain.UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case domain.UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case domain.UnitDay:
		return t.AddDate(0, 0, n)
	case domain.UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case domain.UnitMonth:
		return addMonthsClamped(t, n)
	case domain.UnitYear:
		return addMonthsClamped(t, 12*n)
	}
	return t
}

// addMonthsClamped differs from time.AddDate, which would roll Jan 31 + 1
// month over into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	h, mi, s := t.Clock()
	return time.Date(first.Year(), first.Month(), d, h, mi, s, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// alignTimeOfDay keeps the calendar date of t and takes the clock time from
// anchor, both read in loc. It fails for an unset anchor, or when the result
// no longer falls on t's calendar date.
func alignTimeOfDay(t, anchor time.Time, loc *time.Location) (time.Time, bool) {
	if anchor.IsZero() {
		return time.Time{}, false
	}
	t = t.In(loc)
	y, m, d := t.Date()
	h, mi, s := anchor.In(loc).Clock()

	aligned := time.Date(y, m, d, h, mi, s, 0, loc)
	if ay, am, ad := aligned.Date(); ay != y || am != m || ad != d {
		return time.Time{}, false
	}
	return aligned, true
}

// Summary describes cfg in English, e.g. "Every 2 weeks at 9:00 AM".
// The anchor time is printed in its own location using locale's clock
// convention.
func Summary(cfg domain.RemindConfig, locale language.Tag) string {
	if !cfg.Reminding {
		return "Reminders off"
	}

	n := cfg.Interval()
	s := "Every " + strconv.Itoa(n) + " " + UnitName(cfg.TimeUnits, n)
	if cfg.TimeUnits.SubDay() {
		return s
	}
	return s + " at " + TimeOfDay(cfg.RemindAt, locale)
}

// UnitName is the English name of u, pluralized for count
func UnitName(u domain.Unit, count int) string {
	if count == 1 {
		return string(u)
	}
	return string(u) + "s"
}

// Upcoming lists the next count due dates assuming each reminder is acted on
// exactly when it falls due.
func Upcoming(since time.Time, cfg domain.RemindConfig, loc *time.Location, count int) []time.Time {
	var out []time.Time
	for range count {
		due, ok := NextDueDate(since, cfg, loc)
		if !ok {
			break
		}
		out = append(out, due)
		since = due
	}
	return out
}
