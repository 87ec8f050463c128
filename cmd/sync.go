package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
)

var syncCmd = &cobra.Command{
	Use:   "sync [push|pull]",
	Short: "Push the book to, or pull it from, the configured Gist",
	Long: "push replaces the Gist copy with the local book; pull replaces the local book\n" +
		"with the Gist copy. The last write wins; nothing is merged.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"push", "pull"},
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.New(cfg.Server).Sync(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Sync %s done: %d accounts, %d sales, %d shopping items.\n",
			res.Direction, res.Accounts, res.Sells, res.Purchases)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
