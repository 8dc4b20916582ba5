package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/chainbreak/chainview/pkg/errors"
)

// defaultTimeout bounds a single request round trip. The retry layer on
// top of this client re-issues on transient failures.
const defaultTimeout = 30 * time.Second

// Client performs JSON requests against the external analysis services.
// It maps transport failures and 5xx responses to retryable errors so
// callers can wrap requests in [RetryWithBackoff].
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given default headers.
// Pass nil for headers if none are needed.
func NewClient(headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		headers: headers,
	}
}

// PostJSON encodes body as JSON, POSTs it to url, and decodes the response
// into v. Non-2xx statuses are returned as errors; 5xx and transport
// failures are retryable.
func (c *Client) PostJSON(ctx context.Context, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

// GetJSON performs a GET request and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", req.Method, req.URL.Host)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response")
	}
	return nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status %d", code)
	case code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "status %d", code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d", code)
	}
}
