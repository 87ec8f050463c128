package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/mcptools"
	"github.com/simonvc/cafeledger/internal/store"
)

var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve read-only report tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := newReports(st)
		log.Info("serving MCP on stdio", zap.String("db", cfg.DB))
		return server.ServeStdio(mcptools.NewServer(svc, version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
