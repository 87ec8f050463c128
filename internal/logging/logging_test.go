package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	FromContext(WithContext(context.Background(), l)).Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)

	assert.NotNil(t, FromContext(context.Background()))
}

func TestNew(t *testing.T) {
	_, err := New(Config{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "token ****cdef", MaskAuthorization("token ghp_abcdef"))
	assert.Equal(t, "Bearer ****1234", MaskAuthorization("Bearer abcdef1234"))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Empty(t, MaskSecret(" "))

	h := http.Header{}
	h.Set("Authorization", "Bearer abcdef1234")
	h.Set("Accept", "application/json")
	m := MaskHeaders(h)
	assert.Equal(t, "Bearer ****1234", m["Authorization"])
	assert.Equal(t, "application/json", m["Accept"])
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(zap.New(core)))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for _, path := range []string{"/ok", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer secret-token-9999")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	inside := logs.FilterMessage("inside").All()
	require.Len(t, inside, 1)
	assert.NotEmpty(t, inside[0].ContextMap()["request_id"])

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	fields := errs[0].ContextMap()
	assert.EqualValues(t, http.StatusInternalServerError, fields["status"])
	headers, ok := fields["headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Bearer ****9999", headers["Authorization"])
}
