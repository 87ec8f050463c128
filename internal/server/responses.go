package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/logging"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps err to a status and writes it. Server errors are logged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	resp := errorResponse{Error: err.Error()}
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, status, resp)
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrVendorNotFound),
		errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrCustomerNotFound),
		errors.Is(err, ledger.ErrPurchaseNotFound),
		errors.Is(err, ledger.ErrSaleNotFound),
		errors.Is(err, ledger.ErrRecipeNotFound),
		errors.Is(err, ledger.ErrTaxRateNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrAlreadyRefunded),
		errors.Is(err, ledger.ErrAccountHasPostings):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrImmutableField),
		errors.Is(err, ledger.ErrUnbalancedEntry),
		errors.Is(err, ledger.ErrNegativePosting):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, ledger.ErrInvalidAccountType):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrServiceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// queryDate parses a YYYY-MM-DD (or RFC 3339) query parameter. A missing
// parameter yields def.
func queryDate(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, ledger.Invalid(key, fmt.Sprintf("%s: want YYYY-MM-DD, got %q", key, v))
	}
	return t.UTC(), nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, ledger.Invalid(key, fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return n, nil
}

// period reads start and end. The default period is the current month to
// date.
func (s *Server) period(r *http.Request) (time.Time, time.Time, error) {
	now := s.now()
	start, err := queryDate(r, "start", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return start, now, err
	}
	end, err := queryDate(r, "end", now)
	if err != nil {
		return start, end, err
	}
	if end.Before(start) {
		return start, end, ledger.Invalid("end", "end is before start")
	}
	return start, end, nil
}

func (s *Server) asOf(r *http.Request) (time.Time, error) {
	return queryDate(r, "as_of", s.now())
}

// emptyIfNil keeps list responses as [] instead of null.
func emptyIfNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
