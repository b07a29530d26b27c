package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_sendChunk_sent(t *testing.T) {
	var receivedBody []byte
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		receivedBody = body
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ticket := testTicket()
	ticket.UploadLinkSecure = server.URL + "/upload"
	session, err := newSession(ticket, NewBytesSource([]byte("0123456789")), 4)
	require.NoError(t, err)
	session.start()

	outcome, err := sendChunk(context.Background(), testAPIClient(server.URL), session, Range{Start: 0, End: 4}, log.NewLogger())

	require.NoError(t, err)
	assert.Equal(t, ChunkSent, outcome)
	assert.Equal(t, []byte("0123"), receivedBody)
	assert.Empty(t, receivedAuth, "upload URL is pre-authorized, the auth header must not be sent")

	// The transmitter does not touch session state.
	assert.Equal(t, int64(0), session.BytesWritten())
	assert.Equal(t, StatusInProgress, session.Status())
}

func Test_sendChunk_needsVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPermanentRedirect)
	}))
	defer server.Close()

	session := testSession(t, server.URL+"/upload", 10)

	outcome, err := sendChunk(context.Background(), testAPIClient(server.URL), session, Range{Start: 0, End: 4}, log.NewLogger())

	require.NoError(t, err)
	assert.Equal(t, ChunkNeedsVerify, outcome)
}

func Test_sendChunk_protocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		if _, err := w.Write([]byte("upload link expired")); err != nil {
			t.Log(err)
		}
	}))
	defer server.Close()

	session := testSession(t, server.URL+"/upload", 10)

	_, err := sendChunk(context.Background(), testAPIClient(server.URL), session, Range{Start: 0, End: 4}, log.NewLogger())

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, session, uploadErr.Session)

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, http.StatusForbidden, protocolErr.StatusCode)
	assert.Contains(t, protocolErr.Body, "upload link expired")
}

func Test_sendChunk_sourceReadError(t *testing.T) {
	session := testSession(t, "https://storage.example.com/upload", 10)

	_, err := sendChunk(context.Background(), testAPIClient("https://api.example.com"), session, Range{Start: 100, End: 104}, log.NewLogger())

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
}
