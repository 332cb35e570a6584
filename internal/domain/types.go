package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateName is returned when another item already uses a name
	ErrDuplicateName = errors.New("an item with this name already exists")
	// ErrNotFound is returned when an item, event or config does not exist
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when an ID prefix matches several items
	ErrAmbiguous = errors.New("ambiguous reference")
)

// Item is a tracked thing with a history of events
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	CreatedAt    time.Time     `json:"created_at"`
	LastModified time.Time     `json:"last_modified"`
	History      []Event       `json:"history,omitempty"`
	Config       *RemindConfig `json:"config,omitempty"`
}

// LatestEvent returns the event with the greatest timestamp, or nil
func (i *Item) LatestEvent() *Event {
	var latest *Event
	for idx := range i.History {
		e := &i.History[idx]
		if latest == nil || e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	return latest
}

// LastEventAt is the latest event timestamp, falling back to CreatedAt
func (i *Item) LastEventAt() time.Time {
	if e := i.LatestEvent(); e != nil {
		return e.Timestamp
	}
	return i.CreatedAt
}

// Event is a single timestamped occurrence in an item's history
type Event struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
}

// Unit is the granularity of a reminder interval
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

// Units lists every unit from finest to coarsest
func Units() []Unit {
	return []Unit{UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear}
}

// ParseUnit accepts a unit name, case-insensitive, singular or plural
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, u := range Units() {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// SubDay reports whether the unit is finer than a day. Sub-day reminders
// carry their own time of day and are never aligned to an anchor.
func (u Unit) SubDay() bool {
	return u == UnitMinute || u == UnitHour
}

// Valid reports whether u is one of Units
func (u Unit) Valid() bool {
	for _, v := range Units() {
		if u == v {
			return true
		}
	}
	return false
}

// RemindConfig describes when an item becomes due again after its last event
type RemindConfig struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	ConfigName     string    `json:"config_name"`
	Reminding      bool      `json:"reminding"`
	RemindAt       time.Time `json:"remind_at"`
	RemindInterval int       `json:"remind_interval"`
	TimeUnits      Unit      `json:"time_units"`
}

// Interval is RemindInterval coerced to at least one
func (c RemindConfig) Interval() int {
	if c.RemindInterval < 1 {
		return 1
	}
	return c.RemindInterval
}

// DefaultRemindConfig is attached to every new item: off, daily, anchored at now
func DefaultRemindConfig(now time.Time) RemindConfig {
	return RemindConfig{
		ConfigName:     "Default",
		Reminding:      false,
		RemindAt:       now,
		RemindInterval: 1,
		TimeUnits:      UnitDay,
	}
}

// DisplayMode selects how elapsed times are rendered
type DisplayMode string

const (
	DisplayTenths   DisplayMode = "tenths"
	DisplaySubunits DisplayMode = "subunits"
)

// ParseDisplayMode accepts "tenths" (or "decimal") and "subunits"
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case DisplayTenths, "decimal":
		return DisplayTenths, nil
	case DisplaySubunits, "subunit", "sub-units":
		return DisplaySubunits, nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// Settings are app-wide display preferences
type Settings struct {
	ID                string      `json:"id"`
	DisplayTimesUsing DisplayMode `json:"display_times_using"`
}

// Theme holds presentation colors passed to whoever renders due items
type Theme struct {
	HighlightColor string `json:"highlight_color"`
}

// DefaultTheme highlights due items in red
func DefaultTheme() Theme {
	return Theme{HighlightColor: "9"}
}
