// Package gateway is the HTTP client for the remote chat service. The service
// is deployed as independent JSON functions (auth, chats, messages, groups,
// profile), each with its own base URL; the client treats them as one opaque
// capability set.
package gateway

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

	"github.com/cenkalti/backoff/v4"

	"github.com/convohq/convo/internal/logging"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRetryElapse = 3 * time.Second
)

// Endpoints holds the base URL of each backend function group.
type Endpoints struct {
	Auth     string
	Chats    string
	Messages string
	Groups   string
	Profile  string
}

// Config configures a Client.
type Config struct {
	Endpoints Endpoints

	// Timeout bounds a single HTTP exchange. Zero means the default.
	Timeout time.Duration

	// RetryMaxElapsed bounds the exponential backoff applied to read
	// requests. Zero means the default; negative disables retries.
	RetryMaxElapsed time.Duration
}

// Client talks to the remote chat service.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	retryMax  time.Duration
}

// StatusError is a non-2xx response from the service. The body's error field,
// when present, is carried in Message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remote returned %d", e.Code)
}

// ErrEndpointNotConfigured means the endpoint group has no base URL set.
var ErrEndpointNotConfigured = errors.New("endpoint not configured")

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryMax := cfg.RetryMaxElapsed
	if retryMax == 0 {
		retryMax = defaultRetryElapse
	}

	transport := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    8,
		IdleConnTimeout: 90 * time.Second,
	}

	return &Client{
		http:      &http.Client{Transport: transport, Timeout: timeout},
		endpoints: cfg.Endpoints,
		retryMax:  retryMax,
	}
}

// getJSON performs a GET with query string and decodes the JSON body into out.
// Reads are idempotent, so transient failures and 5xx responses are retried
// with exponential backoff up to the configured elapsed budget.
func (c *Client) getJSON(ctx context.Context, baseURL, query string, out interface{}) error {
	if baseURL == "" {
		return ErrEndpointNotConfigured
	}

	url := baseURL
	if query != "" {
		url += "?" + query
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = c.exchange(req, out)
		if statusErr, ok := AsStatus(err); ok && statusErr.Code < 500 {
			// Retrying a 4xx cannot succeed.
			return backoff.Permanent(err)
		}
		return err
	}

	if c.retryMax < 0 {
		return operation()
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.retryMax
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// sendJSON performs a write (POST/PUT/DELETE) with a JSON body. Writes are not
// retried: the caller owns failure handling and a blind retry could duplicate
// a send.
func (c *Client) sendJSON(ctx context.Context, method, baseURL string, body, out interface{}) error {
	if baseURL == "" {
		return ErrEndpointNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.exchange(req, out)
}

// exchange runs one HTTP round trip and decodes the response.
func (c *Client) exchange(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errBody); decodeErr == nil {
			statusErr.Message = errBody.Error
		}
		gwLog := logging.Component("gateway")
		gwLog.Debug().
			Str("url", logging.Redact(req.URL.String())).
			Int("status", resp.StatusCode).
			Msg("request failed")
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// AsStatus unwraps a StatusError from err when present.
func AsStatus(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
