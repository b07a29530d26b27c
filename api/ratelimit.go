package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimit is the server-reported request budget as of the last response.
type RateLimit struct {
	// Limit is the total number of requests allowed in the current window.
	Limit int
	// Remaining is the number of requests left in the current window.
	Remaining int
	// Reset is when the window rolls over. Zero when the server never
	// reported one.
	Reset time.Time
}

type rateLimitState struct {
	mu   sync.Mutex
	last RateLimit
}

// RateLimit returns the most recently observed rate-limit state. All values
// are zero until the first response arrives.
func (c *Client) RateLimit() RateLimit {
	c.rateLimit.mu.Lock()
	defer c.rateLimit.mu.Unlock()
	return c.rateLimit.last
}

// updateRateLimit records the X-RateLimit-* headers of a response. Fields
// with missing or malformed headers keep their previous value.
func (c *Client) updateRateLimit(header http.Header) {
	c.rateLimit.mu.Lock()
	defer c.rateLimit.mu.Unlock()

	if limit, err := strconv.Atoi(header.Get("X-RateLimit-Limit")); err == nil {
		c.rateLimit.last.Limit = limit
	}
	if remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining")); err == nil {
		c.rateLimit.last.Remaining = remaining
	}
	if reset, err := time.Parse(time.RFC3339, header.Get("X-RateLimit-Reset")); err == nil {
		c.rateLimit.last.Reset = reset
	}
}
