package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dpathania/cricket-atlas/internal/aggregator"
	"github.com/dpathania/cricket-atlas/internal/config"
	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/storage"
)

var (
	cfgPath  string
	dbSource string
	cacheDir string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cricatlas",
	Short: "Cricket statistics atlas",
	Long: `Compute home-advantage and venue statistics from a cricket results
database. The database schema is discovered at runtime; any SQLite file with
match-like tables works, local or fetched over HTTP.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&dbSource, "db", "", "database path or URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache dir for fetched databases (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(choroplethCmd)
	rootCmd.AddCommand(venueCmd)
	rootCmd.AddCommand(venuesCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration, applies flag overrides, and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if dbSource != "" {
		cfg.Database.Source = dbSource
	}
	if cacheDir != "" {
		cfg.Database.CacheDir = cacheDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	log, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	var zc zap.Config
	if lc.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openEngine opens the configured database and wraps it in an aggregation
// engine. The caller closes the returned DB.
func openEngine(cfg *config.Config, log *zap.Logger) (*storage.DB, *aggregator.Engine, error) {
	db, err := storage.Open(cfg.Database.Source, storage.Options{
		CacheDir:    cfg.Database.CacheDir,
		HTTPTimeout: cfg.Database.FetchTimeout,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	eng := aggregator.New(db, log, model.YearRange{Min: cfg.Years.Min, Max: cfg.Years.Max})
	return db, eng, nil
}
