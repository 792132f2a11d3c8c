// Package backend calls the REST ticketing API on behalf of the gateway.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tulinowpavel/ticketgate"
)

const defaultTimeout = 30 * time.Second

// Config holds the backend connection settings. It is read once at startup.
type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
	Timeout   time.Duration
}

type Client struct {
	baseURL   string
	apiKey    string
	accountID string
	client    *http.Client
	retry     RetryPolicy
}

type Option func(c *Client)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		accountID: cfg.AccountID,
		client:    &http.Client{Timeout: timeout},
		retry:     DefaultRetryPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) AccountID() string {
	return c.accountID
}

// Close drops idle keep-alive connections of the shared client.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// Call performs one backend operation, retried according to the client's
// policy. A non-2xx answer yields a *ticketgate.Error whose code is the HTTP
// status; transport failures are returned as they come from net/http.
func (c *Client) Call(ctx context.Context, verb, path string, body any, query url.Values) (json.RawMessage, error) {
	var payload []byte

	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var result json.RawMessage

	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		data, err := c.do(ctx, verb, u, payload)
		if err != nil {
			slog.WarnContext(ctx, "backend call failed",
				slog.String("verb", verb),
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		}

		result = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, verb, u string, payload []byte) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, verb, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close response body", slog.String("error", err.Error()))
		}
	}()

	bodyBytes, err := readResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ticketgate.Error{
			Code:    resp.StatusCode,
			Message: string(bodyBytes),
		}
	}

	bodyBytes = bytes.TrimSpace(bodyBytes)
	if len(bodyBytes) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(bodyBytes) {
		return nil, errors.New("response body is not valid json")
	}

	return bodyBytes, nil
}
