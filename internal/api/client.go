// Package api is the client of the order backend. The backend is a single
// script endpoint: reads go out as GET with an action query parameter, writes
// as POST with a JSON body sent as text/plain so browsers skip the preflight.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/model"
)

const (
	ActionFetchEligible    = "FETCH_ELIGIBLE"
	ActionUploadFinal      = "UPLOAD_FINAL"
	ActionUploadAdditional = "UPLOAD_ADDITIONAL"

	// BaseKey is the setting that names the backend endpoint.
	BaseKey = "ORDERDROP_API_BASE"

	defaultFetchError   = "Failed to fetch eligible orders."
	defaultRequestError = "Request failed."
	invalidJSONError    = "Invalid JSON response from server."

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// Client talks to the backend. It holds no state between calls.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for base. An empty base is a ConfigurationError.
func New(base string, opts ...Option) (*Client, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, apperr.MissingSetting(BaseKey)
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api"))
	return c, nil
}

// envelope is the response shape shared by every action. OK is decoded
// loosely because the backend is a script and not every deployment sends a
// strict boolean.
type envelope struct {
	OK    json.RawMessage `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error model.Text      `json:"error"`
}

func (e envelope) ok() bool {
	raw := bytes.TrimSpace(e.OK)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}

// FetchEligible returns the orders currently awaiting attachment, in server
// order. A missing data field yields an empty list.
func (c *Client) FetchEligible(ctx context.Context) ([]model.Order, error) {
	sep := "?"
	if strings.Contains(c.base, "?") {
		sep = "&"
	}
	target := c.base + sep + url.Values{"action": {ActionFetchEligible}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &apperr.TransportError{Message: defaultFetchError, Err: err}
	}
	env, err := c.do(req, ActionFetchEligible, defaultFetchError)
	if err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []model.Order{}, nil
	}
	var orders []model.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, &apperr.ProtocolError{Message: invalidJSONError, Err: fmt.Errorf("decode orders: %w", err)}
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

type uploadFinalRequest struct {
	Action  string              `json:"action"`
	OrderID model.OrderID       `json:"orderId"`
	Files   []model.EncodedFile `json:"files"`
}

type uploadAdditionalRequest struct {
	Action        string              `json:"action"`
	OrderID       model.OrderID       `json:"orderId"`
	AdditionalURL string              `json:"additionalUrl"`
	Files         []model.EncodedFile `json:"files"`
}

// UploadFinal attaches files to the order's final stage.
func (c *Client) UploadFinal(ctx context.Context, orderID model.OrderID, files []model.EncodedFile) error {
	return c.post(ctx, ActionUploadFinal, uploadFinalRequest{
		Action:  ActionUploadFinal,
		OrderID: orderID,
		Files:   nonNil(files),
	})
}

// UploadAdditional attaches files to the additional stage keyed by additionalURL.
func (c *Client) UploadAdditional(ctx context.Context, orderID model.OrderID, additionalURL string, files []model.EncodedFile) error {
	return c.post(ctx, ActionUploadAdditional, uploadAdditionalRequest{
		Action:        ActionUploadAdditional,
		OrderID:       orderID,
		AdditionalURL: additionalURL,
		Files:         nonNil(files),
	})
}

func (c *Client) post(ctx context.Context, action string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(payload))
	if err != nil {
		return &apperr.TransportError{Message: defaultRequestError, Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	_, err = c.do(req, action, defaultRequestError)
	return err
}

// do sends req and maps the outcome onto the error taxonomy. The body is
// decoded before the status is checked so a server message on a 4xx/5xx
// still reaches the user.
func (c *Client) do(req *http.Request, action, fallback string) (envelope, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable", slog.String("action", action), slog.Any("error", err))
		return envelope{}, &apperr.TransportError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return envelope{}, &apperr.TransportError{Message: fallback, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("backend response",
		slog.String("action", action),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return envelope{}, &apperr.ProtocolError{Message: invalidJSONError, Err: err}
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.ok() {
		msg := strings.TrimSpace(string(env.Error))
		if msg == "" {
			msg = fallback
		}
		return envelope{}, &apperr.ApplicationError{Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}

func nonNil(files []model.EncodedFile) []model.EncodedFile {
	if files == nil {
		return []model.EncodedFile{}
	}
	return files
}
