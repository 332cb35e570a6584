package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
)

// printer writes human-readable output for the CLI
type printer struct {
	w      io.Writer
	due    lipgloss.Style
	dim    lipgloss.Style
	loc    *time.Location
	locale language.Tag
}

func newPrinter(w io.Writer, theme domain.Theme, opts status.Options) printer {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = remind.DefaultLocale
	}
	return printer{
		w:      w,
		due:    lipgloss.NewStyle().Foreground(lipgloss.Color(theme.HighlightColor)).Bold(true),
		dim:    lipgloss.NewStyle().Faint(true),
		loc:    loc,
		locale: locale,
	}
}

// row prints one item per line, due items highlighted
func (p printer) row(st status.ItemStatus) {
	name := runewidth.FillRight(truncate(st.Item.Name, 24), 24)
	line := fmt.Sprintf("%s  %s %-16s %s", shortID(st.Item.ID), name, st.Elapsed, st.Summary)
	if st.Due {
		line = p.due.Render(line + "  (due)")
	}
	fmt.Fprintln(p.w, line)
}

func (p printer) rows(statuses []status.ItemStatus) {
	for _, st := range statuses {
		p.row(st)
	}
}

// when formats t as "Mon Sep 29 2025 2:30 PM" in the display zone
func (p printer) when(t time.Time) string {
	t = t.In(p.loc)
	return t.Format("Mon Jan 2 2006") + " " + remind.TimeOfDay(t, p.locale)
}

func (p printer) event(e domain.Event) {
	var extra []string
	if e.Value != nil {
		extra = append(extra, "value "+formatValue(*e.Value))
	}
	if e.Notes != nil && *e.Notes != "" {
		extra = append(extra, truncate(*e.Notes, 60))
	}
	line := fmt.Sprintf("%s  %s", e.ID, p.when(e.Timestamp))
	if len(extra) > 0 {
		line += "  " + strings.Join(extra, "  ")
	}
	fmt.Fprintln(p.w, line)
}

func (p printer) detail(st status.ItemStatus, upcoming []time.Time, rule string) {
	item := st.Item
	fmt.Fprintf(p.w, "ID:          %s\n", item.ID)
	fmt.Fprintf(p.w, "Name:        %s\n", item.Name)
	if item.Description != "" {
		fmt.Fprintf(p.w, "Description: %s\n", item.Description)
	}
	fmt.Fprintf(p.w, "Created:     %s\n", p.when(item.CreatedAt))
	fmt.Fprintf(p.w, "Last event:  %s (%s)\n", p.when(st.LastEventAt), st.Elapsed)
	fmt.Fprintf(p.w, "Reminder:    %s\n", st.Summary)
	if rule != "" {
		fmt.Fprintf(p.w, "RRULE:       %s\n", p.dim.Render(rule))
	}
	if st.NextDue != nil {
		next := p.when(*st.NextDue)
		if st.Due {
			next = p.due.Render(next + " (due)")
		}
		fmt.Fprintf(p.w, "Next due:    %s\n", next)
	}
	if len(upcoming) > 1 {
		fmt.Fprintf(p.w, "\nUpcoming:\n")
		for _, t := range upcoming[1:] {
			fmt.Fprintf(p.w, "  - %s\n", p.when(t))
		}
	}

	if len(item.History) > 0 {
		fmt.Fprintf(p.w, "\nHistory (%d):\n", len(item.History))
		for i, e := range item.History {
			if i == 10 {
				fmt.Fprintf(p.w, "  ... %d more\n", len(item.History)-i)
				break
			}
			fmt.Fprint(p.w, "  ")
			p.event(e)
		}
	}
}

// formatValue renders 1234.5 as "1,234.5"
func formatValue(v float64) string {
	return humanize.Commaf(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate cuts s to max terminal columns, never inside a rune
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, max, "...")
}
