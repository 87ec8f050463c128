package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func (s *Server) createVendor(w http.ResponseWriter, r *http.Request) {
	var v ledger.Vendor
	if !decode(w, r, &v) {
		return
	}
	if err := s.store.CreateVendor(r.Context(), &v); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.store.ListVendors(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(vendors))
}

func (s *Server) deleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVendor(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveItem(w http.ResponseWriter, r *http.Request) {
	var it ledger.Item
	if !decode(w, r, &it) {
		return
	}
	it.ID = chi.URLParam(r, "id")
	if err := s.store.SaveItem(r.Context(), &it); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(items))
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c ledger.Customer
	if !decode(w, r, &c) {
		return
	}
	if err := s.store.CreateCustomer(r.Context(), &c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(customers))
}
