package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.vimeo.com"

// acceptHeader pins the API version so response shapes stay stable.
const acceptHeader = "application/vnd.vimeo.*+json;version=3.4"

// Client executes requests against the API on behalf of a single access token.
// It is safe for concurrent use.
type Client struct {
	httpClient  *retryablehttp.Client
	baseURL     string
	accessToken string
	logger      log.Logger
	rateLimit   rateLimitState
}

// NewClient ...
func NewClient(httpClient *retryablehttp.Client, baseURL string, accessToken string, logger log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Request describes a single API call. URL may be absolute or a path that is
// resolved against the client's base URL. NoAuth suppresses the Authorization
// header for endpoints that are pre-authorized by their URL (upload links).
type Request struct {
	Method        string
	URL           string
	Headers       map[string]string
	Body          io.ReadSeeker
	ContentLength int64
	NoAuth        bool
}

// Response is a fully read API response. Non-2xx statuses are returned as
// data, not errors: interpreting the status is the caller's business.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out interface{}) error {
	return json.Unmarshal(r.Body, out)
}

// TransportError is returned when a request could not be sent or its response
// could not be read (DNS failure, connection reset, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Do executes the request and reads the whole response body. Network-level
// failures are reported as *TransportError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	reqURL := c.ResolveURL(r.URL)

	var body interface{}
	if r.Body != nil {
		body = r.Body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if !r.NoAuth {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
		req.Header.Set("Accept", acceptHeader)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.Body != nil {
		// Add Content-Length header manually because retryablehttp doesn't do it automatically
		req.Header.Set("Content-Length", fmt.Sprintf("%d", r.ContentLength))
		req.ContentLength = r.ContentLength
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: reqURL, Err: err}
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	c.updateRateLimit(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: reqURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// ResolveURL turns a path like "/videos/123" into an absolute URL. Absolute
// URLs pass through unchanged; tickets hand out both forms.
func (c *Client) ResolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(u, "/")
}

// StandardClient returns the underlying *http.Client for collaborators that
// need one directly (downloads).
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}
