package remind

import (
	"fmt"
	"strings"
	"time"

	"github.com/pbaille/since/internal/domain"
	"github.com/teambition/rrule-go"
)

var unitFreq = map[domain.Unit]rrule.Frequency{
	domain.UnitMinute: rrule.MINUTELY,
	domain.UnitHour:   rrule.HOURLY,
	domain.UnitDay:    rrule.DAILY,
	domain.UnitWeek:   rrule.WEEKLY,
	domain.UnitMonth:  rrule.MONTHLY,
	domain.UnitYear:   rrule.YEARLY,
}

// RRule renders cfg as an RFC 5545 recurrence rule such as
// "FREQ=WEEKLY;INTERVAL=2;BYHOUR=9;BYMINUTE=0;BYSECOND=0". Day-scale units
// carry the anchor time of day read in loc. ok is false when reminders are
// off.
func RRule(cfg domain.RemindConfig, loc *time.Location) (rule string, ok bool) {
	opt, ok := ruleOption(cfg, loc)
	if !ok {
		return "", false
	}
	return opt.RRuleString(), true
}

func ruleOption(cfg domain.RemindConfig, loc *time.Location) (rrule.ROption, bool) {
	if !cfg.Reminding {
		return rrule.ROption{}, false
	}
	freq, found := unitFreq[cfg.TimeUnits]
	if !found {
		return rrule.ROption{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: cfg.Interval(),
	}
	if !cfg.TimeUnits.SubDay() && !cfg.RemindAt.IsZero() {
		h, m, s := cfg.RemindAt.In(loc).Clock()
		opt.Byhour = []int{h}
		opt.Byminute = []int{m}
		opt.Bysecond = []int{s}
	}
	return opt, true
}

// clampHorizon covers a full cycle of month intervals, and 96 years of
// yearly ones, before a clamped day of month settles.
const clampHorizon = 24

// Schedule is a recurrence set whose occurrences are the due dates Upcoming
// yields from Start: Start itself, then Rule, plus RDates, minus ExDates.
// All times are in the schedule's location.
type Schedule struct {
	Start   time.Time
	Rule    string
	RDates  []time.Time
	ExDates []time.Time
}

// NewSchedule builds the recurrence set of cfg starting at the due date
// due. A plain rule repeats the day of month, while NextDueDate clamps it
// (Jan 31, Feb 28, Mar 28), so month and year intervals that clamp get
// BYMONTHDAY set to the day they settle on and explicit dates for the
// occurrences before that.
func NewSchedule(due time.Time, cfg domain.RemindConfig, loc *time.Location) (Schedule, bool) {
	opt, ok := ruleOption(cfg, loc)
	if !ok {
		return Schedule{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	due = due.In(loc).Truncate(time.Second)
	sched := Schedule{Start: due, Rule: opt.RRuleString()}
	if cfg.TimeUnits != domain.UnitMonth && cfg.TimeUnits != domain.UnitYear {
		return sched, true
	}

	chain := append([]time.Time{due}, Upcoming(due, cfg, loc, clampHorizon)...)
	settled := chain[len(chain)-1].Day()
	clamps := false
	for _, t := range chain {
		if t.Day() != due.Day() {
			clamps = true
			break
		}
	}
	if !clamps {
		return sched, true
	}

	opt.Bymonthday = []int{settled}
	if cfg.TimeUnits == domain.UnitYear {
		opt.Bymonth = []int{int(due.Month())}
	}
	sched.Rule = opt.RRuleString()

	opt.Dtstart = due
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return Schedule{}, false
	}
	generated := append([]time.Time{due}, r.Between(due, chain[len(chain)-1], true)...)
	for _, t := range generated {
		if !containsTime(chain, t) && !containsTime(sched.ExDates, t) {
			sched.ExDates = append(sched.ExDates, t)
		}
	}
	for _, t := range chain {
		if !containsTime(generated, t) {
			sched.RDates = append(sched.RDates, t)
		}
	}
	return sched, true
}

func containsTime(ts []time.Time, t time.Time) bool {
	for _, u := range ts {
		if u.Equal(t) {
			return true
		}
	}
	return false
}

// FromRRule builds a reminder config from a recurrence rule, starting from
// base for the fields a rule cannot express. BYHOUR, BYMINUTE and BYSECOND
// set the anchor time of day on base.RemindAt's date in loc. A leading
// "RRULE:" is accepted.
func FromRRule(rule string, base domain.RemindConfig, loc *time.Location) (domain.RemindConfig, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return base, fmt.Errorf("parse rrule: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	unit, err := freqUnit(opt.Freq)
	if err != nil {
		return base, err
	}

	cfg := base
	cfg.Reminding = true
	cfg.TimeUnits = unit
	cfg.RemindInterval = max(1, opt.Interval)

	if len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		anchor := base.RemindAt
		if anchor.IsZero() {
			anchor = time.Now()
		}
		anchor = anchor.In(loc)
		y, mo, d := anchor.Date()
		cfg.RemindAt = time.Date(y, mo, d, first(opt.Byhour), first(opt.Byminute), first(opt.Bysecond), 0, loc)
	}
	return cfg, nil
}

func freqUnit(f rrule.Frequency) (domain.Unit, error) {
	for u, freq := range unitFreq {
		if freq == f {
			return u, nil
		}
	}
	return "", fmt.Errorf("unsupported frequency %v", f)
}

func first(v []int) int {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}
