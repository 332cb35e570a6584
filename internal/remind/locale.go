package remind

import (
	"time"

	"golang.org/x/text/language"
)

// regions whose short time style uses a 12-hour clock
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "PH": true, "IN": true,
	"PK": true, "EG": true, "SA": true, "BD": true, "MY": true, "CO": true,
	"SV": true, "HN": true, "NI": true, "JO": true,
}

// DefaultLocale is used when no locale is configured
var DefaultLocale = language.AmericanEnglish

// Uses12HourClock reports whether locale writes times as "2:30 PM".
// A bare language falls back to its likely region, so "en" behaves like
// "en-US" and "fr" like "fr-FR".
func Uses12HourClock(locale language.Tag) bool {
	region, _ := locale.Region()
	return twelveHourRegions[region.String()]
}

// TimeOfDay formats the clock time of t in short style for locale:
// "2:30 PM" or "14:30".
func TimeOfDay(t time.Time, locale language.Tag) string {
	if Uses12HourClock(locale) {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}

// ParseLocale parses a BCP 47 tag such as "en-US" or "de_DE", falling back to
// DefaultLocale when s is empty or malformed.
func ParseLocale(s string) language.Tag {
	if s == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLocale
	}
	return tag
}
