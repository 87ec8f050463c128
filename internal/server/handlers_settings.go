package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func (s *Server) saveTaxRate(w http.ResponseWriter, r *http.Request) {
	var rate ledger.TaxRate
	if !decode(w, r, &rate) {
		return
	}
	if err := s.store.SaveTaxRate(r.Context(), &rate); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) listTaxRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.store.ListTaxRates(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(rates))
}

func (s *Server) deleteTaxRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts, err := s.store.TaxSettings(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if ts.DefaultTaxRateID == id {
		writeError(w, http.StatusConflict, "tax rate is the default rate: "+id)
		return
	}
	if err := s.store.DeleteTaxRate(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTaxSettings(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.TaxSettings(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) putTaxSettings(w http.ResponseWriter, r *http.Request) {
	var ts ledger.TaxSettings
	if !decode(w, r, &ts) {
		return
	}
	if err := s.store.SetTaxSettings(r.Context(), ts); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}
