package blobstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// fakeGist serves a single gist from memory.
type fakeGist struct {
	mu      sync.Mutex
	files   map[string]*gistFile
	auth    string
	status  int
	rawBody string
}

func (f *fakeGist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")
	if f.status != 0 {
		w.WriteHeader(f.status)
		json.NewEncoder(w).Encode(map[string]string{"message": "rate limited"})
		return
	}
	switch {
	case r.URL.Path == "/raw":
		w.Write([]byte(f.rawBody))
	case r.URL.Path != "/gists/g1":
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(gistBody{Files: f.files})
	case r.Method == http.MethodPatch:
		var body gistBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for name, file := range body.Files {
			f.files[name] = file
		}
		json.NewEncoder(w).Encode(gistBody{Files: f.files})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFake(t *testing.T) (*fakeGist, *httptest.Server) {
	f := &fakeGist{files: map[string]*gistFile{"notes.md": {Content: "hello"}}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestGetMissingFile(t *testing.T) {
	_, srv := newFake(t)
	g := New(srv.URL, "g1", "tok", "cafeledger.json")

	b, err := g.Get(t.Context())
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestPutThenGet(t *testing.T) {
	f, srv := newFake(t)
	g := New(srv.URL, "g1", "tok", "cafeledger.json")

	saved := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	book := &ledger.Book{
		Customers:   []ledger.Customer{{ID: "c1", Name: "Sara", Balance: decimal.NewFromInt(120_000)}},
		TaxSettings: ledger.TaxSettings{Enabled: true, PricesIncludeTax: true},
		SavedAt:     saved,
	}
	require.NoError(t, g.Put(t.Context(), book))
	f.mu.Lock()
	assert.Equal(t, "Bearer tok", f.auth)
	assert.Contains(t, f.files, "notes.md", "other files are kept")
	f.mu.Unlock()

	got, err := g.Get(t.Context())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Customers, 1)
	assert.Equal(t, "Sara", got.Customers[0].Name)
	assert.True(t, got.Customers[0].Balance.Equal(decimal.NewFromInt(120_000)))
	assert.True(t, got.TaxSettings.PricesIncludeTax)
	assert.True(t, saved.Equal(got.SavedAt))
}

func TestGetTruncatedUsesRawURL(t *testing.T) {
	f, srv := newFake(t)
	f.files["cafeledger.json"] = &gistFile{Content: `{"accou`, Truncated: true, RawURL: srv.URL + "/raw"}
	f.rawBody = `{"vendors":[{"id":"v1","name":"Roastery"}]}`

	got, err := New(srv.URL, "g1", "", "cafeledger.json").Get(t.Context())
	require.NoError(t, err)
	require.Len(t, got.Vendors, 1)
	assert.Equal(t, "Roastery", got.Vendors[0].Name)
}

func TestServiceErrors(t *testing.T) {
	f, srv := newFake(t)

	_, err := New(srv.URL, "missing", "", "cafeledger.json").Get(t.Context())
	var se *ledger.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "Not Found", se.Message)
	assert.False(t, se.Retryable())

	f.mu.Lock()
	f.status = http.StatusTooManyRequests
	f.mu.Unlock()
	err = New(srv.URL, "g1", "", "cafeledger.json").Put(t.Context(), &ledger.Book{})
	assert.ErrorIs(t, err, ledger.ErrServiceUnavailable)
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Retryable())

	f.mu.Lock()
	f.status = 0
	f.files["cafeledger.json"] = &gistFile{Content: "not json"}
	f.mu.Unlock()
	_, err = New(srv.URL, "g1", "", "cafeledger.json").Get(t.Context())
	assert.ErrorContains(t, err, "decode book")
}
