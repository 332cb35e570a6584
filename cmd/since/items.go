package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/since/internal/config"
	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/reltime"
	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
)

func addCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Start tracking something",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.store.AddItem(strings.Join(args, " "), description)
			if errors.Is(err, domain.ErrDuplicateName) {
				return fmt.Errorf("%q: %w", strings.Join(args, " "), err)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Added %s (%s)\n", item.Name, shortID(item.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "item description")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		style      string
		components int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with the time since their last event",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := a.opts
			if style != "" {
				mode, err := domain.ParseDisplayMode(style)
				if err != nil {
					return err
				}
				opts.Style = status.StyleFor(mode)
			}
			if cmd.Flags().Changed("components") {
				opts.Components = components
			}

			items, err := a.store.ListItems()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("Nothing tracked yet. Use 'since add' to start.")
				return nil
			}

			newPrinter(os.Stdout, a.cfg.Theme(), opts).rows(status.BuildAll(items, opts, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "display style: tenths|decimal|subunits")
	cmd.Flags().IntVarP(&components, "components", "c", reltime.DefaultComponents, "units shown in subunits style")
	return cmd
}

func showCmd() *cobra.Command {
	var upcoming int

	cmd := &cobra.Command{
		Use:   "show [ref]",
		Short: "Show an item with its reminder and history",
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
			st := status.Build(*item, a.opts, time.Now())
			var (
				rule  string
				times []time.Time
			)
			if item.Config != nil {
				rule, _ = remind.RRule(*item.Config, p.loc)
				times = remind.Upcoming(item.LastEventAt(), *item.Config, p.loc, upcoming+1)
			}
			p.detail(st, times, rule)
			return nil
		},
	}

	cmd.Flags().IntVarP(&upcoming, "upcoming", "n", 3, "further due dates to list")
	return cmd
}

func renameCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "rename [ref] [name]",
		Short: "Rename an item",
		Args:  cobra.MinimumNArgs(2),
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
			desc := item.Description
			if cmd.Flags().Changed("description") {
				desc = description
			}

			updated, err := a.store.UpdateItem(item.ID, strings.Join(args[1:], " "), desc)
			if err != nil {
				return err
			}
			fmt.Printf("Renamed %s to %s\n", item.Name, updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [ref]",
		Short: "Delete an item and its history",
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
			if err := a.store.DeleteItem(item.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", item.Name)
			return nil
		},
	}
}

func dueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List items whose reminder is due",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.store.ListItems()
			if err != nil {
				return err
			}
			due := status.Due(status.BuildAll(items, a.opts, time.Now()))
			if len(due) == 0 {
				fmt.Println("Nothing is due.")
				return nil
			}
			newPrinter(os.Stdout, a.cfg.Theme(), a.opts).rows(due)
			return nil
		},
	}
}

// saveSettings persists timezone and locale changes to the config file at
// path. Empty values are left alone. The file is reloaded so that flag
// overrides such as --db are not written back.
func saveSettings(path, timezone, locale string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if timezone != "" {
		if err := cfg.SetTimezone(timezone); err != nil {
			return nil, err
		}
	}
	if locale != "" {
		if err := cfg.SetLocale(locale); err != nil {
			return nil, err
		}
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func settingsCmd() *cobra.Command {
	var display, timezone, locale string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if timezone != "" || locale != "" {
				if _, err := saveSettings(configPath, timezone, locale); err != nil {
					return err
				}
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			settings, err := a.store.GetSettings()
			if err != nil {
				return err
			}
			if display != "" {
				mode, err := domain.ParseDisplayMode(display)
				if err != nil {
					return err
				}
				if settings, err = a.store.SetDisplayMode(mode); err != nil {
					return err
				}
			}

			fmt.Printf("Display times using: %s\n", settings.DisplayTimesUsing)
			fmt.Printf("Timezone:            %s\n", a.opts.Location)
			fmt.Printf("Locale:              %s\n", a.cfg.Locale)
			fmt.Printf("Config:              %s\n", configPath)
			fmt.Printf("Database:            %s\n", a.cfg.DB)
			return nil
		},
	}

	cmd.Flags().StringVar(&display, "display", "", "tenths|subunits")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA zone for reminders and display, saved to the config file")
	cmd.Flags().StringVar(&locale, "locale", "", "BCP 47 locale for the clock style, saved to the config file")
	return cmd
}
