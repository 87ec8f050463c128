package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Cafe:        %s (%s)\n", cfg.Cafe.Name, cfg.Cafe.Currency)
		fmt.Printf("Database:    %s\n", cfg.DB)
		fmt.Printf("Listen:      %s\n", cfg.Listen)
		fmt.Printf("Server:      %s\n", cfg.Server)
		fmt.Printf("Log:         %s/%s\n", cfg.Log.Level, cfg.Log.Format)
		fmt.Printf("Report TTL:  %s\n", cfg.Cache.ReportTTL)
		if cfg.GistEnabled() {
			fmt.Printf("Gist sync:   %s/%s (token set: %v)\n", cfg.Gist.ID, cfg.Gist.Filename, cfg.Gist.Token != "")
		} else {
			fmt.Println("Gist sync:   disabled")
		}
		if cfg.AIEnabled() {
			fmt.Printf("Commentary:  %s (timeout %s, %d retries)\n", cfg.AI.URL, cfg.AI.Timeout, cfg.AI.MaxRetries)
		} else {
			fmt.Println("Commentary:  disabled")
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
