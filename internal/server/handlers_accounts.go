package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/store"
)

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req ledger.NewAccount
	if !decode(w, r, &req) {
		return
	}
	acct, err := s.store.AddAccount(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	filter := store.AccountFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		if !ledger.ValidType(ledger.AccountType(t)) {
			writeError(w, http.StatusBadRequest, "unknown account type: "+t)
			return
		}
		filter.Type = ledger.AccountType(t)
	}
	if a := r.URL.Query().Get("active"); a == "true" || a == "1" {
		filter.ActiveOnly = true
	}

	accounts, err := s.store.ListAccounts(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(accounts))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var patch ledger.AccountPatch
	if !decode(w, r, &patch) {
		return
	}
	acct, err := s.store.UpdateAccount(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// deleteAccount refuses accounts that the current journal posts to.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.store.DeleteAccount(r.Context(), chi.URLParam(r, "id"), rep.Journal()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) initAccounts(w http.ResponseWriter, r *http.Request) {
	created, err := s.store.InitializeDefaultAccounts(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(created))
}

// applyBalances stores the balances recomputed from the journal.
func (s *Server) applyBalances(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	accounts, err := s.store.ApplyBalances(r.Context(), rep.ClosingBalances())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(accounts))
}

type chartResponse struct {
	Accounts []ledger.ChartEntry `json:"accounts"`
	Roles    ledger.AccountRoles `json:"roles"`
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chartResponse{Accounts: ledger.DefaultChart, Roles: s.reports.Roles()})
}
