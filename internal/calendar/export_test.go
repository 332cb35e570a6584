package calendar

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"
	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func exportOne(t *testing.T, item domain.Item, loc *time.Location, now time.Time) *ical.VEvent {
	t.Helper()
	statuses := status.BuildAll([]domain.Item{item}, status.Options{Location: loc}, now)
	cal, err := ical.ParseCalendar(strings.NewReader(Export(statuses, loc, now)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	return events[0]
}

func TestExport(t *testing.T) {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	anchor := time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC)

	items := []domain.Item{
		{
			ID:        "run",
			Name:      "Morning Run",
			CreatedAt: created,
			Config: &domain.RemindConfig{
				Reminding: true, RemindAt: anchor, RemindInterval: 2, TimeUnits: domain.UnitDay,
			},
		},
		{
			ID:        "haircut",
			Name:      "Haircut",
			CreatedAt: created,
			Config:    &domain.RemindConfig{Reminding: false, RemindAt: anchor, RemindInterval: 6, TimeUnits: domain.UnitWeek},
		},
		{ID: "bare", Name: "No config", CreatedAt: created},
	}
	now := created.Add(time.Hour)
	statuses := status.BuildAll(items, status.Options{Location: time.UTC}, now)

	out := Export(statuses, time.UTC, now)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, "run@since", ev.Id())
	assert.Equal(t, "Morning Run", ev.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Every 2 days at 9:00 AM", ev.GetProperty(ical.ComponentPropertyDescription).Value)

	rrule := ev.GetProperty(ical.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	assert.Contains(t, rrule.Value, "FREQ=DAILY")
	assert.Contains(t, rrule.Value, "INTERVAL=2")

	start, err := ev.GetStartAt()
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC).Equal(start), "got %v", start)
}

func TestExportInZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	created := time.Date(2025, 6, 1, 20, 0, 0, 0, ny)
	cfg := domain.RemindConfig{
		Reminding: true, RemindAt: time.Date(2000, 1, 1, 9, 0, 0, 0, ny), RemindInterval: 1, TimeUnits: domain.UnitDay,
	}
	ev := exportOne(t, domain.Item{ID: "pills", Name: "Pills", CreatedAt: created, Config: &cfg}, ny, created)

	dtstart := ev.GetProperty(ical.ComponentPropertyDtStart)
	require.NotNil(t, dtstart)
	assert.Equal(t, "20250602T090000", dtstart.Value)
	assert.Equal(t, []string{"America/New_York"}, dtstart.ICalParameters["TZID"])

	start, err := ev.GetStartAt()
	require.NoError(t, err)
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, ny)
	assert.True(t, due.Equal(start), "got %v", start)

	opt, err := rrule.StrToROption(ev.GetProperty(ical.ComponentPropertyRrule).Value)
	require.NoError(t, err)
	opt.Dtstart = start
	opt.Count = 5
	r, err := rrule.NewRRule(*opt)
	require.NoError(t, err)

	want := append([]time.Time{due}, remind.Upcoming(due, cfg, ny, 4)...)
	got := r.All()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "occurrence %d: got %v want %v", i, got[i], want[i])
	}
}

func TestExportClampedMonths(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	created := time.Date(2025, 2, 28, 12, 0, 0, 0, ny)
	cfg := domain.RemindConfig{
		Reminding: true, RemindAt: time.Date(2000, 1, 1, 9, 0, 0, 0, ny), RemindInterval: 1, TimeUnits: domain.UnitMonth,
	}
	// next due Mar 28, then the 28th of every month
	ev := exportOne(t, domain.Item{ID: "rent", Name: "Rent", CreatedAt: created, Config: &cfg}, ny, created)
	assert.Equal(t, "20250328T090000", ev.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.NotContains(t, ev.GetProperty(ical.ComponentPropertyRrule).Value, "BYMONTHDAY")

	created = time.Date(2025, 2, 28, 12, 0, 0, 0, ny).AddDate(0, 1, 3)
	// created Mar 31: due Apr 30, May 30 ... Jan 30, then Feb 28 onwards
	ev = exportOne(t, domain.Item{ID: "rent", Name: "Rent", CreatedAt: created, Config: &cfg}, ny, created)
	assert.Equal(t, "20250430T090000", ev.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Contains(t, ev.GetProperty(ical.ComponentPropertyRrule).Value, "BYMONTHDAY=28")

	rdates := ev.GetProperties(ical.ComponentPropertyRdate)
	exdates := ev.GetProperties(ical.ComponentPropertyExdate)
	require.Len(t, rdates, 9)
	require.Len(t, exdates, 9)
	assert.Equal(t, "20250530T090000", rdates[0].Value)
	assert.Equal(t, "20250528T090000", exdates[0].Value)
	assert.Equal(t, []string{"America/New_York"}, rdates[0].ICalParameters["TZID"])
}

func TestExportLocalIsFloating(t *testing.T) {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.Local)
	cfg := domain.RemindConfig{
		Reminding: true, RemindAt: time.Date(2000, 1, 1, 9, 0, 0, 0, time.Local), RemindInterval: 1, TimeUnits: domain.UnitDay,
	}
	ev := exportOne(t, domain.Item{ID: "tea", Name: "Tea", CreatedAt: created, Config: &cfg}, time.Local, created)

	dtstart := ev.GetProperty(ical.ComponentPropertyDtStart)
	assert.Equal(t, "20250302T090000", dtstart.Value)
	assert.NotContains(t, dtstart.ICalParameters, "TZID")
}

func TestExportEmpty(t *testing.T) {
	out := Export(nil, time.UTC, time.Now())
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
