package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/remind"
)

// accepted --at layouts, read in the display zone unless they carry an offset
var timeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04",
}

// parseWhen reads s as RFC 3339 or one of timeLayouts. A bare time of day
// means today.
func parseWhen(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == "15:04" {
			y, m, d := now.In(loc).Date()
			t = time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q (want RFC 3339, YYYY-MM-DD HH:MM or HH:MM)", s)
}

func logCmd() *cobra.Command {
	var (
		value float64
		notes string
		at    string
	)

	cmd := &cobra.Command{
		Use:   "log [ref]",
		Short: "Record that something happened",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.store.FindItem(args[0])
			if err != nil {
				return err
			}

			p := newPrinter(os.Stdout, a.cfg.Theme(), a.opts)
			ts := time.Now()
			if at != "" {
				if ts, err = parseWhen(at, ts, p.loc); err != nil {
					return err
				}
			}

			var (
				valuePtr *float64
				notesPtr *string
			)
			if cmd.Flags().Changed("value") {
				valuePtr = &value
			}
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}

			event, err := a.store.AddEvent(item.ID, ts, valuePtr, notesPtr)
			if err != nil {
				return err
			}
			a.logger.Debug("event logged", "item", item.Name, "event", event.ID)

			fmt.Printf("Logged %s at %s\n", item.Name, p.when(event.Timestamp))
			return nil
		},
	}

	cmd.Flags().Float64Var(&value, "value", 0, "numeric value for this event")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for this event")
	cmd.Flags().StringVar(&at, "at", "", "when it happened (default now)")
	return cmd
}

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events [ref]",
		Short: "List an item's events, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.store.FindItem(args[0])
			if err != nil {
				return err
			}
			events, err := a.store.ListEvents(item.ID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Printf("No events for %s.\n", item.Name)
				return nil
			}

			p := newPrinter(os.Stdout, a.cfg.Theme(), a.opts)
			for _, e := range events {
				p.event(e)
			}
			return nil
		},
	}
}

func rmEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-event [event-id]",
		Short: "Delete a single event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteEvent(args[0]); err != nil {
				return err
			}
			fmt.Println("Event deleted")
			return nil
		},
	}
}

func remindCmd() *cobra.Command {
	var (
		every int
		unit  string
		at    string
		rule  string
		off   bool
	)

	cmd := &cobra.Command{
		Use:   "remind [ref]",
		Short: "Configure when an item becomes due",
		Long: `Configure when an item becomes due after its last event.

  since remind plants --every 3 --unit days --at 09:00
  since remind backup --rrule "FREQ=WEEKLY;INTERVAL=2;BYHOUR=18"
  since remind plants --off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if off && (rule != "" || cmd.Flags().Changed("every") || unit != "" || at != "") {
				return errors.New("--off cannot be combined with other reminder flags")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.store.FindItem(args[0])
			if err != nil {
				return err
			}

			p := newPrinter(os.Stdout, a.cfg.Theme(), a.opts)
			now := time.Now()
			cfg := domain.DefaultRemindConfig(now)
			if item.Config != nil {
				cfg = *item.Config
			}

			switch {
			case off:
				cfg.Reminding = false
			case rule != "":
				if cfg, err = remind.FromRRule(rule, cfg, p.loc); err != nil {
					return err
				}
			default:
				cfg.Reminding = true
				if cmd.Flags().Changed("every") {
					cfg.RemindInterval = every
				}
				if unit != "" {
					if cfg.TimeUnits, err = domain.ParseUnit(unit); err != nil {
						return err
					}
				}
				if at != "" {
					if cfg.RemindAt, err = parseWhen(at, now, p.loc); err != nil {
						return err
					}
				}
			}

			saved, err := a.store.SetConfig(item.ID, cfg)
			if err != nil {
				return err
			}
			saved.RemindAt = saved.RemindAt.In(p.loc)
			fmt.Printf("%s: %s\n", item.Name, remind.Summary(*saved, p.locale))
			if due, ok := remind.NextDueDate(item.LastEventAt(), *saved, p.loc); ok {
				fmt.Printf("Next due: %s\n", p.when(due))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&every, "every", 1, "interval between reminders")
	cmd.Flags().StringVar(&unit, "unit", "", "minutes|hours|days|weeks|months|years")
	cmd.Flags().StringVar(&at, "at", "", "anchor time of day (HH:MM) or full date")
	cmd.Flags().StringVar(&rule, "rrule", "", "RFC 5545 recurrence rule")
	cmd.Flags().BoolVar(&off, "off", false, "turn reminders off")
	return cmd
}
