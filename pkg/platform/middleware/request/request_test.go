package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idgraph/pkg/requestcontext"
)

type recordingObserver struct {
	routes   []string
	statuses []string
	panics   int
}

func (o *recordingObserver) ObserveRequest(route, _, status string, _ time.Duration) {
	o.routes = append(o.routes, route)
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) IncrementPanics() { o.panics++ }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	})

	t.Run("mints id when missing or oversized", func(t *testing.T) {
		for _, in := range []string{"", strings.Repeat("x", maxRequestIDLen+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, in)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Len(t, seen, 36)
			assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
		}
	})
}

func TestRecovery(t *testing.T) {
	obs := &recordingObserver{}
	h := Recovery(discard(), obs)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, obs.panics)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Logger(slog.New(slog.NewJSONHandler(&buf, nil)), obs))
	r.Get("/visitors/{visitorID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visitors/abc", nil))

	require.Equal(t, []string{"/visitors/{visitorID}"}, obs.routes)
	assert.Equal(t, []string{"418"}, obs.statuses)
	assert.Contains(t, buf.String(), `"route":"/visitors/{visitorID}"`)
	assert.NotContains(t, buf.String(), "/visitors/abc")
}

func TestTimeout(t *testing.T) {
	var hasDeadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, hasDeadline)

	h = Timeout(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasDeadline)
}
