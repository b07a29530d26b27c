package upload

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/onlinebustech/vimeo-go/api"
)

// QuotaUnknown means the ticket did not report a remaining storage quota.
const QuotaUnknown int64 = -1

// Ticket is the server-issued credential for a single resumable upload. It
// is immutable once obtained and is never reused across files.
type Ticket struct {
	// ID is the opaque ticket identifier.
	ID string
	// URI is the ticket resource on the API host.
	URI string
	// UploadLinkSecure is the pre-authorized URL chunks are sent to.
	UploadLinkSecure string
	// CompleteURI is the endpoint that finalizes the upload.
	CompleteURI string
	// QuotaFree is the account's remaining storage quota in bytes, or
	// QuotaUnknown.
	QuotaFree int64
}

type ticketResponse struct {
	TicketID         string `json:"ticket_id"`
	URI              string `json:"uri"`
	UploadLinkSecure string `json:"upload_link_secure"`
	CompleteURI      string `json:"complete_uri"`
	User             struct {
		UploadQuota struct {
			Space struct {
				Free *int64 `json:"free"`
			} `json:"space"`
		} `json:"upload_quota"`
	} `json:"user"`
}

// requestTicket asks the server for an upload ticket. With an empty
// replaceVideoURI a fresh video is created; otherwise the existing video's
// file is replaced. Both variants return the same ticket shape.
func requestTicket(ctx context.Context, client *api.Client, replaceVideoURI string, logger log.Logger) (*Ticket, error) {
	method := http.MethodPost
	endpoint := "/me/videos?type=streaming"
	step := "request upload ticket"
	if replaceVideoURI != "" {
		method = http.MethodPut
		endpoint = fmt.Sprintf("%s/files?type=streaming", strings.TrimSuffix(replaceVideoURI, "/"))
		step = "request replace ticket"
	}

	resp, err := client.Do(ctx, api.Request{Method: method, URL: endpoint})
	if err != nil {
		return nil, uploadErrorf(nil, err, step)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &ProtocolError{Step: step, StatusCode: resp.StatusCode, Body: errorSnippet(resp.Body)}
	}

	var tr ticketResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return nil, uploadErrorf(nil, err, "decode ticket response")
	}

	ticket := &Ticket{
		ID:               tr.TicketID,
		URI:              tr.URI,
		UploadLinkSecure: tr.UploadLinkSecure,
		CompleteURI:      tr.CompleteURI,
		QuotaFree:        QuotaUnknown,
	}
	if tr.User.UploadQuota.Space.Free != nil {
		ticket.QuotaFree = *tr.User.UploadQuota.Space.Free
	}

	if ticket.UploadLinkSecure == "" {
		return nil, &PreconditionError{Message: "ticket is missing the secure upload link"}
	}
	if ticket.CompleteURI == "" {
		return nil, &PreconditionError{Message: "ticket is missing the complete URI"}
	}

	logger.Debugf("Acquired upload ticket %s", ticket.ID)
	return ticket, nil
}
