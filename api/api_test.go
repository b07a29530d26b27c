package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	logger := log.NewLogger()
	httpClient := retryhttp.NewClient(logger)
	httpClient.RetryMax = 0
	httpClient.RetryWaitMin = 0
	httpClient.RetryWaitMax = 0
	return NewClient(httpClient, baseURL, "test-token", logger)
}

func Test_Do_attachesAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.vimeo.*+json;version=3.4", r.Header.Get("Accept"))
		_, err := w.Write([]byte(`{"ok": true}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Do(context.Background(), Request{Method: http.MethodGet, URL: "/me"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.DecodeJSON(&body))
	assert.True(t, body.OK)
}

func Test_Do_noAuthSuppressesHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Do(context.Background(), Request{Method: http.MethodPut, URL: "/upload", NoAuth: true})

	require.NoError(t, err)
}

func Test_Do_nonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("no such thing"))
		require.NoError(t, err)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Do(context.Background(), Request{Method: http.MethodGet, URL: "/nope"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no such thing", string(resp.Body))
}

func Test_Do_transportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Do(context.Background(), Request{Method: http.MethodGet, URL: "/me"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
}

func Test_ResolveURL(t *testing.T) {
	client := newTestClient("https://api.example.com")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "path",
			in:   "/videos/123",
			want: "https://api.example.com/videos/123",
		},
		{
			name: "path without leading slash",
			in:   "videos/123",
			want: "https://api.example.com/videos/123",
		},
		{
			name: "absolute URL passes through",
			in:   "https://storage.example.com/upload/abc",
			want: "https://storage.example.com/upload/abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.ResolveURL(tt.in))
		})
	}
}
