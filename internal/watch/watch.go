// Package watch re-evaluates items on a schedule and reports when they
// become due or stop being due.
package watch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/status"
)

// DefaultSchedule checks once per second
const DefaultSchedule = "@every 1s"

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time { return time.Now() }

// Source lists the items to evaluate
type Source interface {
	ListItems() ([]domain.Item, error)
}

// Transition is an item whose due state changed between two checks
type Transition struct {
	Status status.ItemStatus
	At     time.Time
}

// BecameDue reports whether the item went from not due to due
func (t Transition) BecameDue() bool { return t.Status.Due }

// Config configures a Watcher
type Config struct {
	Source   Source
	Options  status.Options
	Clock    Clock
	Logger   *log.Logger
	OnChange func(Transition)
}

// Watcher tracks the due state of every item between checks
type Watcher struct {
	src      Source
	opts     status.Options
	clock    Clock
	logger   *log.Logger
	onChange func(Transition)

	mu   sync.Mutex
	due  map[string]bool
	last []status.ItemStatus
	cron *cron.Cron
}

// New creates a Watcher
func New(cfg Config) *Watcher {
	w := &Watcher{
		src:      cfg.Source,
		opts:     cfg.Options,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		onChange: cfg.OnChange,
		due:      make(map[string]bool),
	}
	if w.clock == nil {
		w.clock = RealClock{}
	}
	if w.logger == nil {
		w.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})
	}
	return w
}

// Check evaluates every item once and returns the transitions since the
// previous check. The first check only records state, except for items that
// are already due, which are reported.
func (w *Watcher) Check(ctx context.Context) ([]Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := w.src.ListItems()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	now := w.clock.Now()
	statuses := status.BuildAll(items, w.opts, now)

	w.mu.Lock()
	var changes []Transition
	seen := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		id := st.Item.ID
		seen[id] = true
		was, known := w.due[id]
		if (known && was != st.Due) || (!known && st.Due) {
			changes = append(changes, Transition{Status: st, At: now})
		}
		w.due[id] = st.Due
	}
	for id := range w.due {
		if !seen[id] {
			delete(w.due, id)
		}
	}
	w.last = statuses
	w.mu.Unlock()

	for _, c := range changes {
		if c.BecameDue() {
			w.logger.Info("item due", "item", c.Status.Item.Name, "elapsed", c.Status.Elapsed, "rule", c.Status.Summary)
		} else {
			w.logger.Debug("item no longer due", "item", c.Status.Item.Name)
		}
		if w.onChange != nil {
			w.onChange(c)
		}
	}
	return changes, nil
}

// Snapshot returns the statuses computed by the most recent check
func (w *Watcher) Snapshot() []status.ItemStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]status.ItemStatus, len(w.last))
	copy(out, w.last)
	return out
}

// Start runs Check on the given cron schedule until Stop is called. An empty
// spec uses DefaultSchedule.
func (w *Watcher) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return fmt.Errorf("watcher already running")
	}

	loc := w.opts.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if _, err := w.Check(context.Background()); err != nil {
			w.logger.Error("check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	w.cron = c
	c.Start()
	w.logger.Info("watching", "schedule", spec)
	return nil
}

// Stop halts the schedule and waits for a running check to finish
func (w *Watcher) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
