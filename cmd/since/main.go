package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pbaille/since/internal/config"
	"github.com/pbaille/since/internal/status"
	"github.com/pbaille/since/internal/store"
)

var (
	configPath string
	dbPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "since",
		Short:         "Track how long it has been since things happened",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(rmEventCmd())
	rootCmd.AddCommand(renameCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(dueCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	store  *store.Store
	opts   status.Options
	logger *log.Logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		Level:           cfg.Level(),
	})
}

func getStore(cfg *config.Config) (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.DB)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.DB)
}

// openApp loads the config, opens the store and resolves display options.
// Callers must Close the returned app.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, "since")

	s, err := getStore(cfg)
	if err != nil {
		return nil, err
	}

	settings, err := s.GetSettings()
	if err != nil {
		s.Close()
		return nil, err
	}
	opts, err := cfg.StatusOptions(settings)
	if err != nil {
		logger.Warn("falling back to local time", "error", err)
	}

	return &app{cfg: cfg, store: s, opts: opts, logger: logger}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
