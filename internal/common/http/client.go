// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultMaxBodyBytes caps response bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 4 << 20

// ErrBodyTooLarge is returned when a response exceeds the body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Client issues single-attempt JSON requests bounded by a per-call timeout
// and a response body limit.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewClient(timeout time.Duration, maxBodyBytes int64) *Client {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		maxBody:    maxBodyBytes,
	}
}

// PostJSON marshals payload, POSTs it to url and reads the response body up
// to the client limit.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// IsTimeout reports whether err came from an exceeded deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
