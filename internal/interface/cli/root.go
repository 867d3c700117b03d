package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/app"
	"github.com/neilberkman/vigil/internal/core/config"
	"github.com/neilberkman/vigil/internal/core/errvalues"
)

var (
	dbPath      string
	verbose     bool
	versionInfo string
	cfg         *config.Config
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Prayer journal and novena tracker",
	Long: `vigil - a local prayer journal

Log rosaries, chaplets and novena days, keep a journal of intentions and
reflections, follow your daily streak, and walk through nine-day novenas
one calendar day at a time.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to today's overview if no subcommand specified
		return statsCmd.RunE(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "Database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads the config file and installs the logger
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db") || loaded.DBPath == "" {
		loaded.DBPath = dbPath
	}
	cfg = loaded

	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// openApp opens the database named by the config and --db flag
func openApp() (*app.App, error) {
	if cfg == nil {
		cfg = config.Default()
		cfg.DBPath = dbPath
	}
	return app.Open(cfg, nil)
}

// persisted turns a persistence failure into a warning: the action took
// effect in memory but may not survive a restart. Other errors pass through.
func persisted(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errvalues.ErrPersistence) {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: could not save to disk, this change may be lost: "+err.Error()))
		return nil
	}
	return err
}
