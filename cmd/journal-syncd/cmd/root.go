package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/adapter/httpadapter"
	"github.com/c0deZ3R0/journal-sync/config"
	"github.com/c0deZ3R0/journal-sync/logging"
	"github.com/c0deZ3R0/journal-sync/storage/memory"
	"github.com/c0deZ3R0/journal-sync/storage/sqlite"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// Global flags.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "journal-syncd",
	Short: "Synchronize editorial entities with the journal platform",
	Long: `journal-syncd reconciles manuscripts, reviewers, and editorial decisions
between the agent-side store and the external journal-management platform.
It detects divergent concurrent edits via content hashes, escalates conflicts
for resolution, and drains queued sync requests with a background worker.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("journal-syncd %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "journal-sync.yaml", "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(conflictsCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// newService wires a Service from the config file. The caller owns Close.
func newService() (*journalsync.Service, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	// Environment variables supply the knobs the config file does not carry
	// (AddSource, Environment); file-configured level and format win.
	logCfg := logging.GetConfigFromEnv()
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	logging.Init(logCfg)

	var store journalsync.EntityStore
	switch cfg.Store.Driver {
	case "memory":
		store = memory.New()
	default:
		store, err = sqlite.NewWithDataSource(cfg.Store.DataSourceName)
		if err != nil {
			return nil, nil, err
		}
	}

	adapterOpts := []httpadapter.Option{}
	if cfg.Adapter.AuthToken != "" {
		adapterOpts = append(adapterOpts, httpadapter.WithAuthToken(cfg.Adapter.AuthToken))
	}
	adapter := httpadapter.New(cfg.Adapter.BaseURL, adapterOpts...)

	svc := journalsync.New(store, adapter, &journalsync.Options{
		AdapterTimeout:   cfg.Adapter.Timeout.Std(),
		ConflictStrategy: cfg.Sync.ConflictStrategy,
		PollInterval:     cfg.Sync.PollInterval.Std(),
	})
	return svc, cfg, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}
