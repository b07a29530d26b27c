package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RateLimit_updatedFromResponseHeaders(t *testing.T) {
	reset := time.Date(2026, time.August, 27, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "1000")
		w.Header().Set("X-RateLimit-Remaining", "998")
		w.Header().Set("X-RateLimit-Reset", reset.Format(time.RFC3339))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Equal(t, RateLimit{}, client.RateLimit())

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: "/me"})
	require.NoError(t, err)

	got := client.RateLimit()
	assert.Equal(t, 1000, got.Limit)
	assert.Equal(t, 998, got.Remaining)
	assert.True(t, got.Reset.Equal(reset))
}

func Test_RateLimit_malformedHeadersKeepPreviousValues(t *testing.T) {
	malformed := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if malformed {
			w.Header().Set("X-RateLimit-Limit", "a lot")
			w.Header().Set("X-RateLimit-Remaining", "")
		} else {
			w.Header().Set("X-RateLimit-Limit", "1000")
			w.Header().Set("X-RateLimit-Remaining", "500")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: "/me"})
	require.NoError(t, err)

	malformed = true
	_, err = client.Do(context.Background(), Request{Method: http.MethodGet, URL: "/me"})
	require.NoError(t, err)

	got := client.RateLimit()
	assert.Equal(t, 1000, got.Limit)
	assert.Equal(t, 500, got.Remaining)
}
