package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberql/ember/config"
	"github.com/emberql/ember/engine"
)

var (
	configPath string
	dataDir    string
	dbName     string
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "ember is an embeddable relational storage engine",
	Long: `ember runs a small relational engine out of a single data
directory: paged storage, a buffer pool, B-tree indexes, and a SQL
front end, all driven through one engine facade.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ember.toml", "path to a TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides the config file's data.directory)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "ember", "database name")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

// loadEngine loads configuration, starts an Engine against it, and
// returns it along with the resolved data directory. The caller owns
// calling Stop.
func loadEngine() (*engine.Engine, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	dir := cfg.DataDirectory()
	if dataDir != "" {
		dir = dataDir
	}

	configureLogging(cfg.LogLevel())

	e := engine.New(cfg)
	if err := e.Start(dbName, dir); err != nil {
		return nil, "", err
	}
	return e, dir, nil
}

func configureLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
