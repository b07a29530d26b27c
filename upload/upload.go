package upload

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"
	"github.com/onlinebustech/vimeo-go/api"
)

// DefaultChunkSize is the upload window size used when UploadParams does not
// set one.
const DefaultChunkSize int64 = 8 * 1024 * 1024

const retryWaitTime = 5 * time.Second

// UploadParams ...
type UploadParams struct {
	// APIBaseURL overrides the API host. Defaults to api.DefaultBaseURL.
	APIBaseURL string
	// Token is the access token used for ticket, completion and metadata
	// calls. Chunk and verification requests are pre-authorized by the
	// ticket and never carry it.
	Token string
	// Source provides the bytes to upload.
	Source Source
	// ChunkSize is the upload window size in bytes. Defaults to
	// DefaultChunkSize.
	ChunkSize int64
	// ReplaceVideoURI, when set to an existing video URI such as
	// "/videos/12345", replaces that video's file instead of creating a
	// new video.
	ReplaceVideoURI string
}

// Upload pushes the source to the remote storage endpoint in bounded-size
// chunks: it acquires a ticket, transmits chunks sequentially, verifies the
// server's durable offset once all bytes are believed sent, and finalizes
// the upload. When the client's offset and the server's diverge, the
// server's wins and transmission resumes from there.
//
// On success the returned session is completed and carries the final clip
// URI. On failure the partially-progressed session is returned alongside the
// error (nil if no session existed yet) so the caller can resume; the loop
// itself never retries with a fresh ticket.
func Upload(ctx context.Context, params UploadParams, logger log.Logger) (*Session, error) {
	if err := validateParams(&params); err != nil {
		return nil, err
	}

	client := api.NewClient(retryhttp.NewClient(logger), params.APIBaseURL, params.Token, logger)

	ticket, err := requestTicket(ctx, client, params.ReplaceVideoURI, logger)
	if err != nil {
		return nil, err
	}

	length := params.Source.Length()
	if ticket.QuotaFree != QuotaUnknown && length > ticket.QuotaFree {
		return nil, &UploadError{
			Message: "file size " + units.HumanSize(float64(length)) + " exceeds the remaining quota of " + units.HumanSize(float64(ticket.QuotaFree)),
		}
	}

	session, err := newSession(ticket, params.Source, params.ChunkSize)
	if err != nil {
		return nil, err
	}

	logger.Infof("Uploading %s in chunks of %s", units.HumanSize(float64(length)), units.HumanSize(float64(params.ChunkSize)))

	session.start()
	if err := runLoop(ctx, client, session, false, logger); err != nil {
		return session, err
	}
	return session, nil
}

// Resume continues a previously failed session from its last confirmed
// offset, reusing the same ticket. The loop verifies the server's offset
// before sending any further bytes, so it is safe to call after a transfer
// was cut off mid-chunk.
func Resume(ctx context.Context, params UploadParams, session *Session, logger log.Logger) error {
	if err := validateParams(&params); err != nil {
		return err
	}
	if session == nil {
		return &PreconditionError{Message: "session is nil"}
	}
	if session.Status() == StatusCompleted {
		return nil
	}

	client := api.NewClient(retryhttp.NewClient(logger), params.APIBaseURL, params.Token, logger)

	session.restart()
	return runLoop(ctx, client, session, true, logger)
}

// UploadWithRetries wraps Upload in a bounded retry policy: the first attempt
// plus up to the given number of retries. Failed attempts resume the same
// session, so bytes the server already holds are never sent twice and no
// fresh ticket is requested. Precondition failures and failures before a
// session exists abort immediately.
func UploadWithRetries(ctx context.Context, params UploadParams, retries uint, logger log.Logger) (*Session, error) {
	var session *Session
	err := retry.Times(retries).Wait(retryWaitTime).TryWithAbort(func(attempt uint) (error, bool) {
		if attempt > 0 {
			logger.Warnf("Retrying upload from offset %d (attempt %d)", session.BytesWritten(), attempt+1)
		}

		var err error
		if session == nil {
			session, err = Upload(ctx, params, logger)
		} else {
			err = Resume(ctx, params, session, logger)
		}
		if err == nil {
			return nil, false
		}

		var preconditionErr *PreconditionError
		if errors.As(err, &preconditionErr) {
			return err, true
		}
		if ctx.Err() != nil {
			return err, true
		}
		if session == nil {
			// The ticket request itself failed. Requesting another
			// ticket affects quota upstream, so leave that decision
			// to the caller.
			return err, true
		}
		return err, false
	})
	return session, err
}

func validateParams(params *UploadParams) error {
	if params.APIBaseURL == "" {
		params.APIBaseURL = api.DefaultBaseURL
	}
	if params.ChunkSize == 0 {
		params.ChunkSize = DefaultChunkSize
	}
	if params.Token == "" {
		return &PreconditionError{Message: "access token is empty"}
	}
	if params.Source == nil {
		return &PreconditionError{Message: "content source is nil"}
	}
	if params.ChunkSize < 0 {
		return &PreconditionError{Message: "chunk size must be positive"}
	}
	if params.Source.Length() < 0 {
		return &PreconditionError{Message: "content source reports a negative length"}
	}
	return nil
}

// runLoop drives the session until it completes or an error unwinds. The
// loop is strictly sequential: a chunk is never sent before the previous
// chunk's response is observed, because the server's durable offset depends
// on ordered receipt.
func runLoop(ctx context.Context, client *api.Client, session *Session, verifyFirst bool, logger log.Logger) error {
	stats := &chunkStats{}
	verifyNext := verifyFirst

	for session.Status() != StatusCompleted {
		if err := ctx.Err(); err != nil {
			session.fail()
			return uploadErrorf(session, err, "upload cancelled")
		}

		if !verifyNext && !session.AllBytesWritten() {
			r, err := sessionNextRange(session)
			if err != nil {
				session.fail()
				return err
			}

			start := time.Now()
			outcome, err := sendChunk(ctx, client, session, r, logger)
			if err != nil {
				session.fail()
				return err
			}
			if outcome == ChunkNeedsVerify {
				verifyNext = true
				continue
			}

			stats.update(time.Since(start))
			session.advance(session.chunkSize)
			logger.Debugf("Sent chunk [%d, %d), %s of %s uploaded [avg chunk %v]",
				r.Start, r.End,
				units.HumanSize(float64(session.BytesWritten())), units.HumanSize(float64(session.Length())),
				stats.average().Round(time.Millisecond))
			continue
		}
		verifyNext = false

		result, err := verifyUpload(ctx, client, session, logger)
		if err != nil {
			session.fail()
			return err
		}
		if err := applyVerification(ctx, client, session, result, logger); err != nil {
			session.fail()
			return err
		}
	}

	return nil
}

// applyVerification feeds a verification result back into the session state,
// completing, reconciling or failing per the server's view.
func applyVerification(ctx context.Context, client *api.Client, session *Session, result VerifyResult, logger log.Logger) error {
	length := session.Length()

	switch {
	case result.Status == VerifyCompleted:
		clipURI, err := completeUpload(ctx, client, session, logger)
		if err != nil {
			return err
		}
		session.complete(clipURI)
		return nil

	case result.Status == VerifyNotFound:
		return uploadErrorf(session, nil, "upload no longer exists on the server")

	case result.BytesWritten == length:
		// The server holds every byte but did not mark the upload
		// complete. Sending more bytes cannot fix that.
		return uploadErrorf(session, nil, "server holds %d of %d bytes but did not report the upload as complete", result.BytesWritten, length)

	case result.BytesWritten == BytesUnknown:
		if session.AllBytesWritten() {
			return uploadErrorf(session, nil, "server reports the upload as incomplete without an offset; retry to resume")
		}
		// No new information. Re-send from the last offset the client
		// has confirmed; the source may have read ahead for a chunk the
		// server never stored.
		return reconcileSession(session, session.BytesWritten())

	default:
		logger.Debugf("Server holds %d bytes, client assumed %d; resuming from the server offset", result.BytesWritten, session.BytesWritten())
		return reconcileSession(session, result.BytesWritten)
	}
}

// reconcileSession corrects the session's offset to the server-reported
// value and repositions the source accordingly.
func reconcileSession(session *Session, serverBytes int64) error {
	if seeker, ok := session.source.(Seeker); ok {
		if err := seeker.SeekTo(serverBytes); err != nil {
			return uploadErrorf(session, err, "reposition source to offset %d", serverBytes)
		}
	} else if serverBytes < session.BytesWritten() {
		return uploadErrorf(session, nil, "server holds %d bytes but the source cannot rewind from %d", serverBytes, session.BytesWritten())
	}
	session.reconcile(serverBytes)
	return nil
}

func sessionNextRange(session *Session) (Range, error) {
	position := session.BytesWritten()
	if session.source.Seekable() {
		pos, err := session.source.Position()
		if err != nil {
			return Range{}, uploadErrorf(session, err, "read source position")
		}
		position = pos
	}
	return nextRange(session.BytesWritten(), position, session.chunkSize, session.Length(), session.source.Seekable()), nil
}

// completeUpload issues the completion call against the ticket's complete
// URI. The Location response header, if present, is the final clip URI.
func completeUpload(ctx context.Context, client *api.Client, session *Session, logger log.Logger) (string, error) {
	resp, err := client.Do(ctx, api.Request{
		Method: http.MethodDelete,
		URL:    session.ticket.CompleteURI,
	})
	if err != nil {
		return "", uploadErrorf(session, err, "complete upload")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		protocolErr := &ProtocolError{Step: "complete upload", StatusCode: resp.StatusCode, Body: errorSnippet(resp.Body)}
		return "", uploadErrorf(session, protocolErr, "complete upload")
	}

	clipURI := resp.Header.Get("Location")
	if clipURI != "" {
		logger.Infof("Upload complete, clip at %s", clipURI)
	} else {
		logger.Infof("Upload complete")
	}
	return clipURI, nil
}
