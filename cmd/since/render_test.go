package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/status"
)

func TestParseWhen(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	now := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01T08:00:00Z", time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		{"2025-03-01 08:15", time.Date(2025, 3, 1, 8, 15, 0, 0, loc)},
		{"2025-03-01T08:15", time.Date(2025, 3, 1, 8, 15, 0, 0, loc)},
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, loc)},
		// 22:30 UTC is already the 10th in Paris
		{"07:45", time.Date(2025, 3, 10, 7, 45, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWhen(tt.in, now, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}

	_, err = parseWhen("yesterday-ish", now, loc)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1,234.5", formatValue(1234.5))
	assert.Equal(t, "3", formatValue(3))
}

func TestPrinterRow(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, domain.DefaultTheme(), status.Options{Location: time.UTC, Locale: language.BritishEnglish})

	p.row(status.ItemStatus{
		Item:    domain.Item{ID: "0123456789abcdef", Name: "Water plants"},
		Elapsed: "2.0 d ago",
		Summary: "Every 2 days at 09:00",
		Due:     true,
	})

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "(due)")
}

func TestPrinterWhen(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, domain.DefaultTheme(), status.Options{Location: time.UTC})
	got := p.when(time.Date(2025, 9, 29, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, "Mon Sep 29 2025 2:30 PM", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
	long := strings.Repeat("x", 30)
	assert.Equal(t, strings.Repeat("x", 7)+"...", truncate(long, 10))

	accented := strings.Repeat("é", 20)
	assert.Equal(t, accented, truncate(accented, 24))

	cut := truncate(strings.Repeat("é", 30), 10)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, strings.Repeat("é", 7)+"...", cut)

	wide := truncate("日本語の名前です", 10)
	assert.True(t, utf8.ValidString(wide))
	assert.Equal(t, "日本語...", wide)
}

func TestPrinterRowPadsByWidth(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, domain.DefaultTheme(), status.Options{Location: time.UTC})

	p.row(status.ItemStatus{Item: domain.Item{ID: "abc", Name: "Café"}, Elapsed: "2.0 d ago"})

	assert.Contains(t, buf.String(), "Café"+strings.Repeat(" ", 21)+"2.0 d ago")
	assert.True(t, utf8.ValidString(buf.String()))
}
