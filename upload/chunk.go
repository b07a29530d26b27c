package upload

import (
	"bytes"
	"context"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/onlinebustech/vimeo-go/api"
)

// statusResumeIncomplete is the redirect-like status code the server
// reserves for resumable uploads. On a chunk send it signals an offset
// mismatch, not a failure.
const statusResumeIncomplete = http.StatusPermanentRedirect

// ChunkOutcome is the result of transmitting one chunk.
type ChunkOutcome int

const (
	// ChunkSent means the server accepted the chunk body.
	ChunkSent ChunkOutcome = iota
	// ChunkNeedsVerify means the server's durable offset differs from
	// what the client assumed: re-verify before sending more bytes.
	ChunkNeedsVerify
)

// sendChunk transmits the byte window r to the ticket's upload URL. The
// upload URL is pre-authorized, so no Authorization header is sent. The
// session is not mutated here; offset bookkeeping belongs to the caller.
func sendChunk(ctx context.Context, client *api.Client, session *Session, r Range, logger log.Logger) (ChunkOutcome, error) {
	data, err := session.source.ReadRange(r.Start, r.End)
	if err != nil {
		return 0, uploadErrorf(session, err, "read chunk [%d, %d)", r.Start, r.End)
	}

	resp, err := client.Do(ctx, api.Request{
		Method:        http.MethodPut,
		URL:           session.ticket.UploadLinkSecure,
		Body:          bytes.NewReader(data),
		ContentLength: int64(len(data)),
		NoAuth:        true,
	})
	if err != nil {
		return 0, uploadErrorf(session, err, "send chunk [%d, %d)", r.Start, r.End)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ChunkSent, nil
	case resp.StatusCode == statusResumeIncomplete:
		logger.Debugf("Server requested re-verification after chunk [%d, %d)", r.Start, r.End)
		return ChunkNeedsVerify, nil
	default:
		protocolErr := &ProtocolError{Step: "send chunk", StatusCode: resp.StatusCode, Body: errorSnippet(resp.Body)}
		return 0, uploadErrorf(session, protocolErr, "send chunk [%d, %d)", r.Start, r.End)
	}
}
