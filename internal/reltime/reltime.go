// Package reltime renders elapsed time between two instants as short strings
// like "3hr 12min ago" or "1.5 hr ago".
//
// Month and year use average lengths (30.436875 and 365.2425 days), so long
// durations drift slightly from calendar arithmetic. All functions are pure
// and safe for concurrent use.
package reltime

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultComponents is the usual number of subunits shown
const DefaultComponents = 2

// MaxComponents is the most subunits ever shown
const MaxComponents = 3

// Style selects one of the two renderings
type Style int

const (
	// StyleSubunits shows integer quantities of up to three units: "1d 3hr ago"
	StyleSubunits Style = iota
	// StyleDecimal shows the most significant unit with one decimal: "1.5 hr ago"
	StyleDecimal
)

func (s Style) String() string {
	if s == StyleDecimal {
		return "decimal"
	}
	return "subunits"
}

type unit struct {
	seconds float64
	symbol  string
}

var (
	second = unit{1, "s"}
	minute = unit{60, "min"}
	hour   = unit{60 * 60, "hr"}
	day    = unit{60 * 60 * 24, "d"}
	week   = unit{60 * 60 * 24 * 7, "wk"}
	month  = unit{60 * 60 * 24 * 30.436875, "mo"}
	year   = unit{60 * 60 * 24 * 365.2425, "yr"}
)

// largest first
var units = []unit{year, month, week, day, hour, minute, second}

// Format renders the interval from start to end in the given style.
// components is ignored by StyleDecimal.
func Format(style Style, start, end time.Time, components int, relative bool) string {
	if style == StyleDecimal {
		return DecimalMostSignificant(start, end, relative)
	}
	return Subunits(start, end, components, relative)
}

// Subunits renders the interval as up to components integer parts, largest
// unit first. components is clamped to [1, 3]. Units with a zero quantity
// are skipped, and a zero interval renders as "0s".
func Subunits(start, end time.Time, components int, relative bool) string {
	remaining := elapsed(start, end)
	limit := clamp(components, 1, MaxComponents)

	parts := make([]string, 0, limit)
	for _, u := range units {
		if remaining >= u.seconds || (u == second && len(parts) == 0) {
			value := math.Floor(remaining / u.seconds)
			if value > 0 || len(parts) == 0 {
				parts = append(parts, strconv.FormatFloat(value, 'f', 0, 64)+u.symbol)
				remaining -= value * u.seconds
			}
		}
		if len(parts) == limit {
			break
		}
	}

	return withSuffix(strings.Join(parts, " "), relative)
}

// DecimalMostSignificant renders the interval in the largest unit that fits,
// with exactly one fractional digit.
//
// Rounding is to the nearest tenth of the exact binary value, ties to even,
// so 2.34 days renders as "2.3 d".
func DecimalMostSignificant(start, end time.Time, relative bool) string {
	duration := elapsed(start, end)
	u := mostSignificant(duration)
	value := strconv.FormatFloat(duration/u.seconds, 'f', 1, 64)
	return withSuffix(value+" "+u.symbol, relative)
}

func mostSignificant(duration float64) unit {
	for _, u := range units {
		if duration >= u.seconds {
			return u
		}
	}
	return second
}

// elapsed is end-start in seconds, never negative
func elapsed(start, end time.Time) float64 {
	return math.Max(0, end.Sub(start).Seconds())
}

func withSuffix(s string, relative bool) string {
	if relative {
		return s + " ago"
	}
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
