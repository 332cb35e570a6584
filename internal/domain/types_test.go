package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastEventAt(t *testing.T) {
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("falls back to creation time", func(t *testing.T) {
		it := Item{CreatedAt: created}
		assert.Nil(t, it.LatestEvent())
		assert.Equal(t, created, it.LastEventAt())
	})

	t.Run("uses the newest event regardless of order", func(t *testing.T) {
		it := Item{
			CreatedAt: created,
			History: []Event{
				{ID: "a", Timestamp: created.Add(time.Hour)},
				{ID: "b", Timestamp: created.Add(3 * time.Hour)},
				{ID: "c", Timestamp: created.Add(2 * time.Hour)},
			},
		}
		require.NotNil(t, it.LatestEvent())
		assert.Equal(t, "b", it.LatestEvent().ID)
		assert.Equal(t, created.Add(3*time.Hour), it.LastEventAt())
	})
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{"minute", UnitMinute},
		{"Hours", UnitHour},
		{" day ", UnitDay},
		{"weeks", UnitWeek},
		{"MONTH", UnitMonth},
		{"year", UnitYear},
	}
	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseUnit("fortnight")
	assert.Error(t, err)
}

func TestUnitOrderAndSubDay(t *testing.T) {
	units := Units()
	assert.Equal(t, UnitMinute, units[0])
	assert.Equal(t, UnitYear, units[len(units)-1])

	assert.True(t, UnitMinute.SubDay())
	assert.True(t, UnitHour.SubDay())
	assert.False(t, UnitDay.SubDay())
	assert.False(t, UnitYear.SubDay())

	assert.True(t, UnitWeek.Valid())
	assert.False(t, Unit("weeks").Valid())
}

func TestRemindConfigInterval(t *testing.T) {
	assert.Equal(t, 1, RemindConfig{RemindInterval: 0}.Interval())
	assert.Equal(t, 1, RemindConfig{RemindInterval: -4}.Interval())
	assert.Equal(t, 3, RemindConfig{RemindInterval: 3}.Interval())

	now := time.Now()
	def := DefaultRemindConfig(now)
	assert.False(t, def.Reminding)
	assert.Equal(t, UnitDay, def.TimeUnits)
	assert.Equal(t, 1, def.RemindInterval)
	assert.Equal(t, now, def.RemindAt)
}

func TestParseDisplayMode(t *testing.T) {
	m, err := ParseDisplayMode("Tenths")
	require.NoError(t, err)
	assert.Equal(t, DisplayTenths, m)

	m, err = ParseDisplayMode("decimal")
	require.NoError(t, err)
	assert.Equal(t, DisplayTenths, m)

	m, err = ParseDisplayMode("sub-units")
	require.NoError(t, err)
	assert.Equal(t, DisplaySubunits, m)

	_, err = ParseDisplayMode("roman")
	assert.Error(t, err)
}
