// Package calendar exports reminders as an iCalendar feed so calendar apps
// can show when items fall due.
package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
)

const (
	productID   = "-//pbaille//since//EN"
	localLayout = "20060102T150405"
)

// Export builds a feed with one recurring VEVENT per item that has
// reminders on. Each event starts at the item's next due date and repeats
// by the item's rule, read in loc. Times are written as wall clock in loc
// with a TZID, or floating when loc is time.Local, so BYHOUR expands in the
// same zone as the due dates.
func Export(statuses []status.ItemStatus, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("since reminders")
	if loc != time.Local {
		cal.SetXWRTimezone(loc.String())
	}

	for _, st := range statuses {
		if st.NextDue == nil || st.Item.Config == nil {
			continue
		}
		sched, ok := remind.NewSchedule(*st.NextDue, *st.Item.Config, loc)
		if !ok {
			continue
		}

		ev := cal.AddEvent(st.Item.ID + "@since")
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(st.Item.CreatedAt)
		ev.SetModifiedAt(st.Item.LastModified)
		ev.SetProperty(ical.ComponentPropertyDtStart, wallClock(sched.Start, loc), zone(loc)...)
		ev.SetProperty(ical.ComponentPropertyDtEnd, wallClock(sched.Start, loc), zone(loc)...)
		ev.SetSummary(st.Item.Name)
		ev.SetDescription(st.Summary)
		ev.AddRrule(sched.Rule)
		for _, t := range sched.RDates {
			ev.AddRdate(wallClock(t, loc), zone(loc)...)
		}
		for _, t := range sched.ExDates {
			ev.AddExdate(wallClock(t, loc), zone(loc)...)
		}
	}

	return cal.Serialize()
}

func wallClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localLayout)
}

// zone is nil for time.Local, whose name is not an IANA zone.
func zone(loc *time.Location) []ical.PropertyParameter {
	if loc == time.Local {
		return nil
	}
	return []ical.PropertyParameter{ical.WithTZID(loc.String())}
}
