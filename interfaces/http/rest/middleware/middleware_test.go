package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type recordedRequest struct {
	method, route, status string
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route, status string, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func TestIdentity(t *testing.T) {
	t.Run("Should expose the header through the context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(UserIDHeader, " u1 ")
		w := httptest.NewRecorder()

		var seen string
		Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = UserIDFromContext(r.Context())
		})).ServeHTTP(w, req)

		assert.Equal(t, "u1", seen)
	})

	t.Run("Should reject anonymous callers when required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		called := false
		Identity(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})
}

func TestMetrics(t *testing.T) {
	recorder := &fakeRecorder{}
	router := chi.NewRouter()
	router.Use(Metrics(recorder))
	router.Use(Logger(zaptest.NewLogger(t)))
	router.Get("/games/{gameID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/games/g1", "/plain", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/games/{gameID}", "418"},
		{http.MethodGet, "/plain", "200"},
		{http.MethodGet, "unmatched", "404"},
	}, recorder.requests)
}
