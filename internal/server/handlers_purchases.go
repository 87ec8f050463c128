package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/narrative"
)

func (s *Server) createShoppingItem(w http.ResponseWriter, r *http.Request) {
	var si ledger.ShoppingItem
	if !decode(w, r, &si) {
		return
	}
	if err := s.store.CreateShoppingItem(r.Context(), &si); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, si)
}

func (s *Server) listShoppingItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListShoppingItems(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		kept := items[:0]
		for _, si := range items {
			if string(si.Status) == status {
				kept = append(kept, si)
			}
		}
		items = kept
	}
	writeJSON(w, http.StatusOK, emptyIfNil(items))
}

func (s *Server) getShoppingItem(w http.ResponseWriter, r *http.Request) {
	si, err := s.store.GetShoppingItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, si)
}

type markBoughtRequest struct {
	Price decimal.Decimal `json:"price"`
	Date  *time.Time      `json:"date,omitempty"`
	Paid  bool            `json:"paid"`
}

func (s *Server) markBought(w http.ResponseWriter, r *http.Request) {
	var req markBoughtRequest
	if !decode(w, r, &req) {
		return
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	si, err := s.store.MarkBought(r.Context(), chi.URLParam(r, "id"), req.Price, date, req.Paid)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, si)
}

type dateRequest struct {
	Date *time.Time `json:"date,omitempty"`
}

func (s *Server) markPaid(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !decode(w, r, &req) {
		return
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	si, err := s.store.MarkPaid(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, si)
}

func (s *Server) deleteShoppingItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteShoppingItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readReceipt returns suggested shopping lines for a receipt photo. Nothing
// is stored.
func (s *Server) readReceipt(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "ai service is not configured")
		return
	}
	var req narrative.ReceiptTask
	if !decode(w, r, &req) {
		return
	}
	receipt, err := s.ai.ReadReceipt(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
