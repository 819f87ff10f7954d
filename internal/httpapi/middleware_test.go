package httpapi

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRequestIDEchoAndGeneration(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// An inbound id is preserved end to end.
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "rid-from-client")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "rid-from-client", seen)
	require.Equal(t, "rid-from-client", rr.Header().Get(requestIDHeader))

	// A missing id gets generated and still echoed.
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rr.Header().Get(requestIDHeader))
}

func TestRateLimitExceeded(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 1, 1)

	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.RemoteAddr = "10.1.2.3:5555"

	rr1 := httptest.NewRecorder()
	h.ServeHTTP(rr1, req)
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.NotEmpty(t, rr2.Header().Get("Retry-After"))
}

func TestRateLimitIsolatesClients(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 1, 1)

	first := httptest.NewRequest(http.MethodPost, "/limited", nil)
	first.RemoteAddr = "10.0.0.1:1000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	// A different client keeps its own bucket.
	second := httptest.NewRequest(http.MethodPost, "/limited", nil)
	second.RemoteAddr = "10.0.0.2:1000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, second)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitSpawnsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), 1, 1)
	}
	require.LessOrEqual(t, runtime.NumGoroutine(), before)
}

func TestRateLimitSweepsIdleBuckets(t *testing.T) {
	now := time.Now()
	buckets := map[string]*ipBucket{
		"stale": {lim: rate.NewLimiter(1, 1), ts: now.Add(-10 * time.Minute)},
		"live":  {lim: rate.NewLimiter(1, 1), ts: now.Add(-time.Second)},
	}

	sweepBuckets(buckets, now, 5*time.Minute)

	require.NotContains(t, buckets, "stale")
	require.Contains(t, buckets, "live")
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestMaxBodyBytesRejectsOversizedPayload(t *testing.T) {
	env := newTestAPI(t)

	big := make([]byte, (1<<20)+100)
	for i := range big {
		big[i] = 'a'
	}
	resp := env.do(http.MethodPost, "/v1/auth/telegram",
		map[string]any{"init_data": string(big)}, nil)
	requireErrorCode(t, resp, http.StatusBadRequest, codeMalformedInput)
}
