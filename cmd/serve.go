package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/blobstore"
	"github.com/simonvc/cafeledger/internal/narrative"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/server"
	"github.com/simonvc/cafeledger/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		addr := cfg.Listen
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := newServer(st, addr)
		log.Info("serving", zap.String("addr", addr), zap.String("db", cfg.DB), zap.String("cafe", cfg.Cafe.Name))
		return srv.ListenAndServe()
	},
}

// newServer wires the store, report cache and optional integrations from
// the loaded config.
func newServer(st *store.Store, addr string) *server.Server {
	opts := server.Options{
		Addr:    addr,
		Store:   st,
		Reports: newReports(st),
		Logger:  log,
	}
	if cfg.GistEnabled() {
		opts.Blob = blobstore.New(cfg.Gist.BaseURL, cfg.Gist.ID, cfg.Gist.Token, cfg.Gist.Filename)
		log.Debug("gist sync enabled", zap.String("gist", cfg.Gist.ID))
	}
	if cfg.AIEnabled() {
		opts.AI = narrative.New(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Timeout, cfg.AI.MaxRetries)
		log.Debug("commentary enabled", zap.String("url", cfg.AI.URL))
	}
	return server.New(opts)
}

func newReports(st *store.Store) *reports.Service {
	svc := reports.NewService(st, cfg.Roles, cfg.Cache.ReportTTL)
	if cfg.Cache.Disabled {
		log.Debug("report cache disabled")
		svc.WithoutCache()
	}
	return svc
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8888", "Listen address (overrides config listen)")
	rootCmd.AddCommand(serveCmd)
}
