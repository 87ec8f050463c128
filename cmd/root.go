package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/config"
	"github.com/simonvc/cafeledger/internal/logging"
)

const defaultConfigPath = "cafeledger.yaml"

var (
	flagConfig   string
	flagServer   string
	flagDB       string
	flagLogLevel string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cafeledger",
	Short: "Cafe bookkeeping with a double-entry ledger derived from sales and purchases",
	Long: "Records sales, purchases and customer credit for a cafe, and derives the journal,\n" +
		"ledger and financial statements from those events on demand.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			if _, err := os.Stat(defaultConfigPath); err == nil {
				path = defaultConfigPath
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", defaultConfigPath, err)
			}
		}

		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			c.DB = flagDB
		}
		if cmd.Flags().Changed("server") {
			c.Server = flagServer
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = flagLogLevel
		}
		cfg = c

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		log = l
		zap.ReplaceGlobals(l)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./"+defaultConfigPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8888", "Server address")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "cafeledger.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}

// parseDate reads a YYYY-MM-DD flag value in local time. Empty means now.
func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Now(), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, v)
	}
	return d, nil
}

// parsePeriod reads --from and --to. The period defaults to month to date.
func parsePeriod(from, to string) (time.Time, time.Time, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if from != "" {
		d, err := parseDate("from", from)
		if err != nil {
			return start, now, err
		}
		start = d
	}
	end, err := parseDate("to", to)
	if err != nil {
		return start, end, err
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("--to %s is before --from %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}
