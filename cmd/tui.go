package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/store"
	"github.com/simonvc/cafeledger/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverAddr := cfg.Server

		if !cmd.Flags().Changed("server") {
			// Start embedded server in background
			st, err := store.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			defer ln.Close()

			// The TUI owns the terminal, so the embedded server only logs errors.
			log = log.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))
			srv := newServer(st, ln.Addr().String())
			go func() {
				if err := srv.Serve(ln); err != nil {
					log.Error("embedded server stopped", zap.Error(err))
				}
			}()
			serverAddr = "http://" + ln.Addr().String()

			// Wait for server to be ready
			c := client.New(serverAddr)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		c := client.New(serverAddr)
		app := tui.NewApp(c)
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
