// Package status computes what a list row shows for an item at a given
// instant: time since the last event, whether it is due, and the reminder
// rule in words.
package status

import (
	"time"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/reltime"
	"github.com/pbaille/since/internal/remind"
	"golang.org/x/text/language"
)

// Options controls rendering. The zero value renders in time.Local with
// the default locale, decimal style.
type Options struct {
	Location   *time.Location
	Locale     language.Tag
	Style      reltime.Style
	Components int
}

// WithSettings returns a copy of o using the stored display mode
func (o Options) WithSettings(s *domain.Settings) Options {
	if s != nil {
		o.Style = StyleFor(s.DisplayTimesUsing)
	}
	return o
}

// StyleFor maps a display mode to a formatter style
func StyleFor(m domain.DisplayMode) reltime.Style {
	if m == domain.DisplaySubunits {
		return reltime.StyleSubunits
	}
	return reltime.StyleDecimal
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) locale() language.Tag {
	if o.Locale == language.Und {
		return remind.DefaultLocale
	}
	return o.Locale
}

func (o Options) components() int {
	if o.Components == 0 {
		return reltime.DefaultComponents
	}
	return o.Components
}

// ItemStatus is an item as seen at one instant
type ItemStatus struct {
	Item        domain.Item `json:"item"`
	LastEventAt time.Time   `json:"last_event_at"`
	Elapsed     string      `json:"elapsed"`
	Due         bool        `json:"due"`
	NextDue     *time.Time  `json:"next_due,omitempty"`
	Summary     string      `json:"summary"`
}

// Build evaluates item at now
func Build(item domain.Item, opts Options, now time.Time) ItemStatus {
	loc := opts.location()
	last := item.LastEventAt()

	st := ItemStatus{
		Item:        item,
		LastEventAt: last.In(loc),
		Elapsed:     reltime.Format(opts.Style, last, now, opts.components(), true),
		Summary:     "Reminders off",
	}

	if item.Config == nil {
		return st
	}
	cfg := *item.Config
	cfg.RemindAt = cfg.RemindAt.In(loc)

	st.Summary = remind.Summary(cfg, opts.locale())
	if due, ok := remind.NextDueDate(last, cfg, loc); ok {
		st.NextDue = &due
		st.Due = !now.Before(due)
	}
	return st
}

// BuildAll evaluates every item at the same instant
func BuildAll(items []domain.Item, opts Options, now time.Time) []ItemStatus {
	out := make([]ItemStatus, 0, len(items))
	for _, it := range items {
		out = append(out, Build(it, opts, now))
	}
	return out
}

// Due keeps only the statuses that are due
func Due(statuses []ItemStatus) []ItemStatus {
	var out []ItemStatus
	for _, st := range statuses {
		if st.Due {
			out = append(out, st)
		}
	}
	return out
}
