package remind

import (
	"slices"
	"testing"
	"time"

	"github.com/pbaille/since/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

// occurrences expands s the way a calendar client would, up to and
// including end.
func occurrences(t *testing.T, s Schedule, end time.Time) []time.Time {
	t.Helper()
	opt, err := rrule.StrToROption(s.Rule)
	require.NoError(t, err)
	opt.Dtstart = s.Start
	r, err := rrule.NewRRule(*opt)
	require.NoError(t, err)

	var out []time.Time
	for _, ts := range [][]time.Time{{s.Start}, r.Between(s.Start, end, true), s.RDates} {
		for _, o := range ts {
			if !containsTime(out, o) && !containsTime(s.ExDates, o) {
				out = append(out, o)
			}
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

func TestScheduleMatchesUpcoming(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	anchor := at(2000, 1, 1, 9, 0, ny)

	tests := []struct {
		name      string
		due       time.Time
		cfg       domain.RemindConfig
		monthDay  string
		extraDays bool
	}{
		{"daily", at(2025, 6, 2, 9, 0, ny), config(1, domain.UnitDay, anchor), "", false},
		{"weekly across dst", at(2025, 10, 20, 9, 0, ny), config(2, domain.UnitWeek, anchor), "", false},
		{"monthly mid month", at(2025, 1, 15, 9, 0, ny), config(1, domain.UnitMonth, anchor), "", false},
		{"monthly from jan 31", at(2025, 1, 31, 9, 0, ny), config(1, domain.UnitMonth, anchor), "BYMONTHDAY=28", false},
		{"monthly from mar 31", at(2025, 3, 31, 9, 0, ny), config(1, domain.UnitMonth, anchor), "BYMONTHDAY=28", true},
		{"quarterly from aug 31", at(2025, 8, 31, 9, 0, ny), config(3, domain.UnitMonth, anchor), "BYMONTHDAY=28", true},
		{"yearly from feb 29", at(2028, 2, 29, 9, 0, ny), config(1, domain.UnitYear, anchor), "BYMONTHDAY=28", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, ok := NewSchedule(tt.due, tt.cfg, ny)
			require.True(t, ok)
			assert.True(t, tt.due.Equal(sched.Start))
			if tt.monthDay == "" {
				assert.NotContains(t, sched.Rule, "BYMONTHDAY")
			} else {
				assert.Contains(t, sched.Rule, tt.monthDay)
			}
			assert.Equal(t, tt.extraDays, len(sched.RDates) > 0)
			assert.Len(t, sched.ExDates, len(sched.RDates))

			want := append([]time.Time{tt.due}, Upcoming(tt.due, tt.cfg, ny, 30)...)
			got := occurrences(t, sched, want[len(want)-1])
			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, want[i].Equal(got[i]), "occurrence %d: got %v want %v", i, got[i], want[i])
			}
		})
	}
}

func TestScheduleYearlyKeepsMonth(t *testing.T) {
	sched, ok := NewSchedule(at(2028, 2, 29, 9, 0, time.UTC), config(1, domain.UnitYear, at(2000, 1, 1, 9, 0, time.UTC)), time.UTC)
	require.True(t, ok)
	assert.Contains(t, sched.Rule, "BYMONTH=2")
}

func TestScheduleOff(t *testing.T) {
	cfg := config(1, domain.UnitMonth, time.Time{})
	cfg.Reminding = false
	_, ok := NewSchedule(at(2025, 1, 31, 9, 0, time.UTC), cfg, time.UTC)
	assert.False(t, ok)
}
