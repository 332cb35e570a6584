package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/pbaille/since/internal/api"
	"github.com/pbaille/since/internal/calendar"
	"github.com/pbaille/since/internal/status"
	"github.com/pbaille/since/internal/watch"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reminders as an iCalendar feed",
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
			now := time.Now()
			p := newPrinter(os.Stdout, a.cfg.Theme(), a.opts)
			feed := calendar.Export(status.BuildAll(items, a.opts, now), p.loc, now)

			if output == "" || output == "-" {
				fmt.Print(feed)
				return nil
			}
			if err := os.WriteFile(output, []byte(feed), 0644); err != nil {
				return fmt.Errorf("write calendar: %w", err)
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func watchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print items as they become due",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}

			p := newPrinter(os.Stdout, a.cfg.Theme(), a.opts)
			w := watch.New(watch.Config{
				Source:  a.store,
				Options: a.opts,
				Logger:  newLogger(a.cfg, "watch"),
				OnChange: func(tr watch.Transition) {
					if tr.BecameDue() {
						p.row(tr.Status)
					}
				},
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := w.Check(ctx); err != nil {
				return err
			}
			fmt.Println(watchStatus(w.Snapshot(), schedule))
			if err := w.Start(schedule); err != nil {
				return err
			}
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from config, @every 1s)")
	return cmd
}

// watchStatus is the line `since watch` prints once its first check is done
func watchStatus(statuses []status.ItemStatus, schedule string) string {
	return fmt.Sprintf("Watching %s (%d due), checking %s",
		english.Plural(len(statuses), "item", ""), len(status.Due(statuses)), schedule)
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(api.Config{
				Addr:    addr,
				Store:   a.store,
				Options: a.opts,
				Logger:  newLogger(a.cfg, "api"),
			})
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default from config)")
	return cmd
}
