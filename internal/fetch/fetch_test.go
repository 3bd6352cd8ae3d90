package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testFetcher() *Fetcher {
	f := New()
	f.limiter = rate.NewLimiter(rate.Inf, 1)
	f.attempts = 1
	f.retryDelay = time.Millisecond
	return f
}

func TestFetcherText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><main><p>Ogres are like onions.</p><p>Layers!</p></main></body></html>`))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("just text"))
		}
	}))
	defer srv.Close()

	f := testFetcher()

	text, err := f.Text(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Ogres are like onions.\n\nLayers!", text)

	text, err = f.Text(context.Background(), "<"+srv.URL+"/plain>")
	require.NoError(t, err)
	assert.Equal(t, "just text", text)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"https://example.com/a", "https://example.com/a", nil},
		{"example.com/a", "https://example.com/a", nil},
		{"<http://example.com/a|example.com/a>", "http://example.com/a", nil},
		{"", "", ErrInvalidURL},
		{"ftp://example.com", "", ErrInvalidURL},
	}
	for _, tt := range tests {
		got, err := normalize(tt.in)
		if tt.err != nil {
			assert.True(t, errors.Is(err, tt.err), "%q: %v", tt.in, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFetcherRetries(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		ctype    string
		wantHits int32
		wantErr  error
	}{
		{"not found is not retried", http.StatusNotFound, "text/html", 1, ErrStatus},
		{"unsupported content is not retried", http.StatusOK, "image/png", 1, ErrContentType},
		{"server errors are retried", http.StatusServiceUnavailable, "text/html", 4, ErrStatus},
		{"rate limits are retried", http.StatusTooManyRequests, "text/html", 4, ErrStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Content-Type", tt.ctype)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := testFetcher()
			f.attempts = 3

			_, err := f.Text(context.Background(), srv.URL)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}
