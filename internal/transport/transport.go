// Package transport provides HTTP round trippers shared by the endpoint clients.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// MaxAttempts bounds the requests RetryAfterTransport makes for one call, the first included
const MaxAttempts = 3

// RetryAfterTransport waits out 429 responses that carry a Retry-After header, up to maxWait per attempt. Responses
// without the header, asking for longer than maxWait, or to the last of MaxAttempts requests, are returned to the
// caller unchanged.
type RetryAfterTransport struct {
	base    http.RoundTripper
	maxWait time.Duration
}

func WithRetryAfter(base http.RoundTripper, maxWait time.Duration) *RetryAfterTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryAfterTransport{base: base, maxWait: maxWait}
}

func (t *RetryAfterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		// Restore the request body for each attempt
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= MaxAttempts {
			return resp, nil
		}

		waitDuration := parseRetryAfter(resp.Header.Get("Retry-After"))
		if waitDuration <= 0 || waitDuration > t.maxWait {
			return resp, nil
		}

		// Close the response body to free resources
		err = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		zap.S().Infof("Rate limited, waiting %s (attempt %d of %d)", waitDuration, attempt, MaxAttempts)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(waitDuration):
		}
	}
}

// parseRetryAfter accepts both the delay-seconds and HTTP-date forms
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := http.ParseTime(value); err == nil {
		return time.Until(retryTime)
	}
	return 0
}
