package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxResponseBytes = 1 << 20

// Observer receives the outcome of every backend call, for metrics.
type Observer func(op string, status int, elapsed time.Duration)

// Client talks to the remote platform backend. It is the only place that
// understands the backend's response shapes; everything it returns is already
// normalized into the gateway's own types.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	observe Observer
}

// New builds a backend client. baseURL must not end with a slash.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithObserver registers a metrics callback invoked after every call.
func (c *Client) WithObserver(o Observer) *Client {
	c.observe = o
	return c
}

// do executes one backend request and returns the status code and body.
// Transport failures come back as *NetworkError; non-2xx statuses do not —
// classification of the body is the caller's job.
func (c *Client) do(ctx context.Context, op, method, path, token string, body any) (int, []byte, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.observe != nil {
			c.observe(op, 0, time.Since(start))
		}
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}

	if c.observe != nil {
		c.observe(op, resp.StatusCode, time.Since(start))
	}
	c.logger.Debug("backend call",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	return resp.StatusCode, data, nil
}

func (c *Client) post(ctx context.Context, op, path string, body any) (int, []byte, error) {
	return c.do(ctx, op, http.MethodPost, path, "", body)
}

func (c *Client) getAuthed(ctx context.Context, op, path, token string) (int, []byte, error) {
	return c.do(ctx, op, http.MethodGet, path, token, nil)
}
