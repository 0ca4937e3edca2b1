// ABOUTME: GraphQL-over-HTTPS transport with bearer authentication
// ABOUTME: Posts opaque documents and classifies failures into crmerr kinds
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmlink/crmerr"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 16 << 20

// Request is one GraphQL operation. Query is an opaque document.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Doer executes GraphQL requests and decodes the data field into out.
type Doer interface {
	Do(ctx context.Context, req Request, out any) error
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Client posts GraphQL requests to a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithBaseTransport replaces the transport under the bearer layer.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if bt, ok := c.http.Transport.(*bearerTransport); ok {
			bt.base = rt
		}
	}
}

// WithLogger sets the logger for transport failures and request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client. tokens may be nil for unauthenticated use.
func New(endpoint string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: &bearerTransport{base: http.DefaultTransport, tokens: tokens},
			Timeout:   30 * time.Second,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do sends req and decodes the response data into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := operationLabel(req)

	body, err := json.Marshal(req)
	if err != nil {
		return crmerr.Configuration(op, "failed to encode request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return crmerr.Configuration(op, "invalid endpoint %q: %v", c.endpoint, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("graphql transport failure")
		return crmerr.Network(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return crmerr.Network(op, fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("graphql response")

	return decodeResponse(op, resp.StatusCode, raw, out)
}

func decodeResponse(op string, status int, raw []byte, out any) error {
	if status == http.StatusUnauthorized {
		return crmerr.Authentication(op, responseMessage(raw, "unauthorized"))
	}
	if status >= 500 {
		return crmerr.Network(op, fmt.Errorf("server returned %d: %s", status, responseMessage(raw, http.StatusText(status))))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if status >= 400 {
			return crmerr.Validation(op, strings.TrimSpace(string(raw)), nil)
		}
		return crmerr.Network(op, fmt.Errorf("malformed response: %w", err))
	}

	if len(env.Errors) > 0 {
		return classifyErrors(op, env.Errors)
	}
	if status >= 400 {
		return crmerr.Validation(op, http.StatusText(status), nil)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return crmerr.Network(op, fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}

// classifyErrors maps GraphQL errors to a single crmerr.Error. Messages are
// kept verbatim for display.
func classifyErrors(op string, errs []GraphQLError) error {
	messages := make([]string, 0, len(errs))
	fields := map[string]string{}

	for _, e := range errs {
		if code(e) == "UNAUTHENTICATED" {
			return crmerr.Authentication(op, e.Message)
		}
		messages = append(messages, e.Message)
		collectFieldErrors(e, fields)
	}

	if len(fields) == 0 {
		fields = nil
	}
	return crmerr.Validation(op, strings.Join(messages, "; "), fields)
}

func code(e GraphQLError) string {
	if c, ok := e.Extensions["code"].(string); ok {
		return c
	}
	return ""
}

// collectFieldErrors reads "field" or "fields" from extensions.
func collectFieldErrors(e GraphQLError, fields map[string]string) {
	if f, ok := e.Extensions["field"].(string); ok && f != "" {
		fields[f] = e.Message
	}
	if m, ok := e.Extensions["fields"].(map[string]any); ok {
		for k, v := range m {
			fields[k] = fmt.Sprint(v)
		}
	}
}

func responseMessage(raw []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Errors) > 0 {
		return env.Errors[0].Message
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 512 {
		return s
	}
	return fallback
}

func operationLabel(req Request) string {
	if req.OperationName != "" {
		return "graphql " + req.OperationName
	}
	return "graphql"
}
