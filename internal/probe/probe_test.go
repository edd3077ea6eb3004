package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestHead(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "redirect_range_ok", status: http.StatusNoContent, want: true},
		{name: "not_found", status: http.StatusNotFound, want: false},
		{name: "server_error", status: http.StatusServiceUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			assert.Equal(t, tt.want, New(testConfig()).Head(context.Background(), srv.URL))
		})
	}
}

func TestHeadFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	assert.True(t, New(testConfig()).Head(context.Background(), srv.URL+"/old"))
}

func TestHeadTransportErrorIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	assert.False(t, New(testConfig()).Head(context.Background(), srv.URL))
}

func TestGetRetriesOnServerError(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client := New(testConfig())
	body, ok := client.Get(context.Background(), srv.URL)
	require.True(t, ok)
	assert.Contains(t, string(body), "html")
	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, int64(3), client.Calls())
}

func TestGetRetryBudgetExhausted(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RetryAttempts = 2
	_, ok := New(cfg).Get(context.Background(), srv.URL)
	assert.False(t, ok)
	// initial attempt plus two retries
	assert.Equal(t, int64(3), hits.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, ok := New(testConfig()).Get(context.Background(), srv.URL)
	assert.False(t, ok)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTimeoutIsFinite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	ok := New(cfg).Head(context.Background(), srv.URL)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}
