package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/store"
)

func (s *Server) createSell(w http.ResponseWriter, r *http.Request) {
	var t ledger.SellTransaction
	if !decode(w, r, &t) {
		return
	}
	if err := s.store.CreateSell(r.Context(), &t); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listSells(w http.ResponseWriter, r *http.Request) {
	f := store.SellFilter{CustomerID: r.URL.Query().Get("customer_id")}
	if r.URL.Query().Has("start") {
		start, err := queryDate(r, "start", s.now())
		if err != nil {
			fail(w, r, err)
			return
		}
		f.Start = &start
	}
	if r.URL.Query().Has("end") {
		end, err := queryDate(r, "end", s.now())
		if err != nil {
			fail(w, r, err)
			return
		}
		end = reports.EndOfDay(end)
		f.End = &end
	}
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		fail(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		fail(w, r, err)
		return
	}

	sells, err := s.store.ListSells(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(sells))
}

func (s *Server) getSell(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetSell(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) refundSell(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !decode(w, r, &req) {
		return
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	refund, err := s.store.RefundSell(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, refund)
}

func (s *Server) settleSell(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !decode(w, r, &req) {
		return
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	t, err := s.store.SettleSell(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) saveRecipe(w http.ResponseWriter, r *http.Request) {
	var rc ledger.Recipe
	if !decode(w, r, &rc) {
		return
	}
	if err := s.store.SaveRecipe(r.Context(), &rc); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.store.ListRecipes(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(recipes))
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
