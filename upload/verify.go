package upload

import (
	"context"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/onlinebustech/vimeo-go/api"
)

// VerifyStatus is the server's view of an upload.
type VerifyStatus int

const (
	// VerifyInProgress means the server is still expecting bytes.
	VerifyInProgress VerifyStatus = iota
	// VerifyCompleted means the server holds every byte.
	VerifyCompleted
	// VerifyNotFound means the upload does not exist on the server
	// anymore (expired or aborted).
	VerifyNotFound
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyInProgress:
		return "in progress"
	case VerifyCompleted:
		return "completed"
	case VerifyNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// BytesUnknown marks a verification result that carries no offset
// information.
const BytesUnknown int64 = -1

// VerifyResult is the outcome of a verification probe. It is consumed
// immediately by the upload loop and never stored.
type VerifyResult struct {
	Status VerifyStatus
	// BytesWritten is the server-reported durable byte count, or
	// BytesUnknown when the server reported no usable offset.
	BytesWritten int64
}

// verifyUpload asks the server for its durable offset with a zero-length
// probe against the upload URL. A missing or unparseable Range header is
// treated as "no information", not as a failure; a probe that cannot be sent
// at all is an error.
func verifyUpload(ctx context.Context, client *api.Client, session *Session, logger log.Logger) (VerifyResult, error) {
	resp, err := client.Do(ctx, api.Request{
		Method:  http.MethodPut,
		URL:     session.ticket.UploadLinkSecure,
		Headers: map[string]string{"Content-Range": "bytes */*"},
		NoAuth:  true,
	})
	if err != nil {
		return VerifyResult{}, uploadErrorf(session, err, "verification probe")
	}

	length := session.source.Length()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return VerifyResult{Status: VerifyCompleted, BytesWritten: length}, nil

	case resp.StatusCode == statusResumeIncomplete:
		rangeHeader := resp.Header.Get("Range")
		r, ok := parseRangeHeader(rangeHeader)
		if !ok {
			if rangeHeader != "" {
				logger.Warnf("Unparseable Range header %q in verification response", rangeHeader)
			}
			return VerifyResult{Status: VerifyInProgress, BytesWritten: BytesUnknown}, nil
		}
		received := r.Len()
		if received == length {
			return VerifyResult{Status: VerifyCompleted, BytesWritten: received}, nil
		}
		return VerifyResult{Status: VerifyInProgress, BytesWritten: received}, nil

	default:
		logger.Debugf("Verification probe returned HTTP %d", resp.StatusCode)
		return VerifyResult{Status: VerifyNotFound, BytesWritten: BytesUnknown}, nil
	}
}
