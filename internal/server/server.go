package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/logging"
	"github.com/simonvc/cafeledger/internal/narrative"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/store"
)

// BlobStore holds the JSON copy of the book outside the server.
type BlobStore interface {
	Get(ctx context.Context) (*ledger.Book, error)
	Put(ctx context.Context, b *ledger.Book) error
}

// Narrator writes commentary and reads receipts.
type Narrator interface {
	Summarize(ctx context.Context, t narrative.SummaryTask) (string, error)
	ReadReceipt(ctx context.Context, t narrative.ReceiptTask) (*narrative.Receipt, error)
}

type Options struct {
	Addr    string
	Store   *store.Store
	Reports *reports.Service
	Blob    BlobStore // optional
	AI      Narrator  // optional
	Logger  *zap.Logger
	// PollInterval is how often the change stream checks the store version.
	PollInterval time.Duration
	Now          func() time.Time
}

type Server struct {
	store   *store.Store
	reports *reports.Service
	blob    BlobStore
	ai      Narrator
	log     *zap.Logger
	router  chi.Router
	addr    string
	poll    time.Duration
	now     func() time.Time
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(opts.Logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		store:   opts.Store,
		reports: opts.Reports,
		blob:    opts.Blob,
		ai:      opts.AI,
		log:     opts.Logger,
		router:  r,
		addr:    opts.Addr,
		poll:    opts.PollInterval,
		now:     opts.Now,
	}

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		// Chart of accounts
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccounts)
		r.Post("/accounts/init", s.initAccounts)
		r.Post("/accounts/balances", s.applyBalances)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.updateAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
		r.Get("/chart", s.getChart)

		// Master data
		r.Post("/vendors", s.createVendor)
		r.Get("/vendors", s.listVendors)
		r.Delete("/vendors/{id}", s.deleteVendor)
		r.Put("/items/{id}", s.saveItem)
		r.Get("/items", s.listItems)
		r.Get("/items/{id}", s.getItem)
		r.Delete("/items/{id}", s.deleteItem)
		r.Post("/customers", s.createCustomer)
		r.Get("/customers", s.listCustomers)

		// Purchases
		r.Post("/shopping-items", s.createShoppingItem)
		r.Get("/shopping-items", s.listShoppingItems)
		r.Get("/shopping-items/{id}", s.getShoppingItem)
		r.Post("/shopping-items/{id}/bought", s.markBought)
		r.Post("/shopping-items/{id}/paid", s.markPaid)
		r.Delete("/shopping-items/{id}", s.deleteShoppingItem)
		r.Post("/receipts/read", s.readReceipt)

		// Sales
		r.Post("/sales", s.createSell)
		r.Get("/sales", s.listSells)
		r.Get("/sales/{id}", s.getSell)
		r.Post("/sales/{id}/refund", s.refundSell)
		r.Post("/sales/{id}/settle", s.settleSell)
		r.Put("/recipes", s.saveRecipe)
		r.Get("/recipes", s.listRecipes)
		r.Delete("/recipes/{id}", s.deleteRecipe)

		// Tax
		r.Put("/tax/rates", s.saveTaxRate)
		r.Get("/tax/rates", s.listTaxRates)
		r.Delete("/tax/rates/{id}", s.deleteTaxRate)
		r.Get("/tax/settings", s.getTaxSettings)
		r.Put("/tax/settings", s.putTaxSettings)

		// Reports
		r.Get("/reports/journal", s.journal)
		r.Get("/reports/general-ledger", s.generalLedger)
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.Get("/reports/income-statement", s.incomeStatement)
		r.Get("/reports/cash-flow", s.cashFlow)
		r.Get("/reports/aging", s.aging)
		r.Get("/reports/tax", s.taxReport)
		r.Get("/reports/reconciliation", s.reconciliation)
		r.Get("/reports/commentary", s.commentary)

		// Posting archive
		r.Post("/archive", s.archive)
		r.Get("/archive", s.listArchive)

		// Blob store sync
		r.Post("/sync/push", s.syncPush)
		r.Post("/sync/pull", s.syncPull)

		r.Get("/stream", s.stream)
	})

	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info("cafeledger server listening", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("cafeledger server listening", zap.String("addr", ln.Addr().String()))
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.Version(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": version})
}
