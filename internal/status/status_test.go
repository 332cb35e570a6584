package status

import (
	"testing"
	"time"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/reltime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var t0 = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func item(cfg *domain.RemindConfig, events ...time.Time) domain.Item {
	it := domain.Item{ID: "item-1", Name: "Stretch", CreatedAt: t0, Config: cfg}
	for _, ts := range events {
		it.History = append(it.History, domain.Event{ItemID: it.ID, Timestamp: ts})
	}
	return it
}

func daily(anchor time.Time) *domain.RemindConfig {
	return &domain.RemindConfig{Reminding: true, RemindAt: anchor, RemindInterval: 1, TimeUnits: domain.UnitDay}
}

func TestBuildNotYetDue(t *testing.T) {
	anchor := time.Date(2000, 1, 1, 14, 30, 0, 0, time.UTC)
	opts := Options{Location: time.UTC, Locale: language.AmericanEnglish}

	st := Build(item(daily(anchor), t0), opts, t0.Add(90*time.Minute))

	assert.Equal(t, "1.5 hr ago", st.Elapsed)
	assert.False(t, st.Due)
	require.NotNil(t, st.NextDue)
	assert.True(t, time.Date(2025, 3, 11, 14, 30, 0, 0, time.UTC).Equal(*st.NextDue))
	assert.Equal(t, "Every 1 day at 2:30 PM", st.Summary)
}

func TestBuildDue(t *testing.T) {
	anchor := time.Date(2000, 1, 1, 14, 30, 0, 0, time.UTC)
	opts := Options{Location: time.UTC, Style: reltime.StyleSubunits}

	st := Build(item(daily(anchor), t0), opts, time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC))
	assert.True(t, st.Due)
	assert.Equal(t, "21hr ago", st.Elapsed)
}

func TestBuildUsesLatestEvent(t *testing.T) {
	opts := Options{Location: time.UTC, Style: reltime.StyleSubunits}
	it := item(nil, t0, t0.Add(2*time.Hour), t0.Add(time.Hour))

	st := Build(it, opts, t0.Add(3*time.Hour+12*time.Minute))
	assert.Equal(t, "1hr 12min ago", st.Elapsed)
	assert.True(t, t0.Add(2*time.Hour).Equal(st.LastEventAt))
	assert.Equal(t, "Reminders off", st.Summary)
	assert.Nil(t, st.NextDue)
	assert.False(t, st.Due)
}

func TestBuildDisabledNeverDue(t *testing.T) {
	cfg := daily(t0)
	cfg.Reminding = false

	st := Build(item(cfg, t0), Options{Location: time.UTC}, t0.AddDate(5, 0, 0))
	assert.False(t, st.Due)
	assert.Nil(t, st.NextDue)
	assert.Equal(t, "Reminders off", st.Summary)
}

func TestSummaryUsesDisplayLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	anchor := time.Date(2000, 1, 1, 5, 0, 0, 0, time.UTC)

	st := Build(item(daily(anchor), t0), Options{Location: tokyo, Locale: language.German}, t0)
	assert.Equal(t, "Every 1 day at 14:00", st.Summary)
}

func TestWithSettingsAndDue(t *testing.T) {
	opts := Options{}.WithSettings(&domain.Settings{DisplayTimesUsing: domain.DisplaySubunits})
	assert.Equal(t, reltime.StyleSubunits, opts.Style)
	assert.Equal(t, reltime.StyleDecimal, StyleFor(domain.DisplayTenths))
	assert.Equal(t, opts, opts.WithSettings(nil))

	anchor := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0.AddDate(0, 0, 3)
	statuses := BuildAll([]domain.Item{
		item(daily(anchor), t0),
		item(nil, t0),
	}, Options{Location: time.UTC}, now)

	require.Len(t, statuses, 2)
	due := Due(statuses)
	require.Len(t, due, 1)
	assert.NotNil(t, due[0].Item.Config)
}
