package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/logging"
)

type syncResponse struct {
	Direction string `json:"direction"`
	Accounts  int    `json:"accounts"`
	Sells     int    `json:"sell_transactions"`
	Purchases int    `json:"shopping_items"`
}

// syncPush uploads the whole book to the blob store. The last write wins.
func (s *Server) syncPush(w http.ResponseWriter, r *http.Request) {
	if s.blob == nil {
		writeError(w, http.StatusServiceUnavailable, "blob store is not configured")
		return
	}
	b, err := s.store.Book(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	b.SavedAt = s.now()
	if err := s.blob.Put(r.Context(), b); err != nil {
		fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("book pushed", zap.Int("sells", len(b.Sells)))
	writeJSON(w, http.StatusOK, syncResponse{
		Direction: "push", Accounts: len(b.Accounts), Sells: len(b.Sells), Purchases: len(b.ShoppingItems),
	})
}

// syncPull replaces local state with the book from the blob store. The
// posting archive is kept.
func (s *Server) syncPull(w http.ResponseWriter, r *http.Request) {
	if s.blob == nil {
		writeError(w, http.StatusServiceUnavailable, "blob store is not configured")
		return
	}
	b, err := s.blob.Get(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "blob store holds no book yet")
		return
	}
	if err := s.store.ReplaceBook(r.Context(), b); err != nil {
		fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("book pulled",
		zap.Time("saved_at", b.SavedAt), zap.Int("sells", len(b.Sells)))
	writeJSON(w, http.StatusOK, syncResponse{
		Direction: "pull", Accounts: len(b.Accounts), Sells: len(b.Sells), Purchases: len(b.ShoppingItems),
	})
}
