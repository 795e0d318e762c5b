package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
	"github.com/benjamonnguyen/pomostudy/sqlite"
)

var (
	configPath string
	isProd     bool
	cfg        pomostudy.Config
)

var rootCmd = &cobra.Command{
	Use:   "pomostudy",
	Short: "Pomodoro timer with a local session history",
	Long: `pomostudy runs a pomodoro timer in the terminal and keeps every finished
interval in a local SQLite database.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	pomostudy.LoadEnv(isProd)
	var err error
	cfg, err = pomostudy.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(level)
	log.SetReportCaller(level == log.DebugLevel)
	return nil
}

// openHistory opens the history database and loads every recorded session.
func openHistory(ctx context.Context) (*history.Recorder, *sql.DB, error) {
	log.Debug("opening db", "path", cfg.DatabasePath)
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	tx, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	recorder := history.NewRecorder(sqlite.NewSessionRepo(dbGetter, log.Default()), tx, log.Default())
	if err := recorder.Restore(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return recorder, db, nil
}
