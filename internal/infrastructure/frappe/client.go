// Package frappe calls whitelisted methods of a Frappe/ERPNext site.
//
// Every call POSTs a JSON body to /api/method/<app>.<method> and decodes the
// {"message": ...} envelope. Calls are not retried.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nedlog/internal/core/apperror"
	"nedlog/pkg/logger"
	"nedlog/pkg/validate"
)

const (
	// DefaultApp is the Frappe app hosting the analysis methods.
	DefaultApp = "custom_nedlog"

	methodPath      = "/api/method/"
	maxResponseSize = 32 << 20
)

// Config holds connection settings of a Frappe site.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	App       string
	Timeout   time.Duration
}

// Client is a Frappe REST client.
type Client struct {
	baseURL string
	app     string
	auth    string
	http    *http.Client
	tracer  trace.Tracer
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the site at cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("frappe: invalid base url %q", cfg.BaseURL)
	}

	app := cfg.App
	if app == "" {
		app = DefaultApp
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		baseURL: base,
		app:     app,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("nedlog/frappe"),
		log:     logger.Default().WithComponent("frappe"),
	}
	if cfg.APIKey != "" {
		c.auth = fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.APISecret)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the body of every /api/method response, successful or not.
type envelope struct {
	Message        json.RawMessage `json:"message"`
	Exception      string          `json:"exception"`
	ExcType        string          `json:"exc_type"`
	ServerMessages string          `json:"_server_messages"`
}

// call invokes app.method with args and decodes the message into out.
// An absent or null message is an EMPTY_RESPONSE.
func (c *Client) call(ctx context.Context, method string, args any, out any) error {
	body, err := json.Marshal(args)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("encode %s arguments: %w", method, err))
	}
	return c.do(ctx, http.MethodPost, c.app+"."+method, bytes.NewReader(body), out)
}

func (c *Client) do(ctx context.Context, httpMethod, method string, body io.Reader, out any) error {
	ctx, span := c.tracer.Start(ctx, "frappe."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("frappe.method", method)),
	)
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+methodPath+method, body)
	if err != nil {
		return fail(apperror.NewInternal(err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithContext(ctx).Warnw("frappe call failed", "method", method, "error", err)
		return fail(apperror.NewRemoteFailure(method, "", err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fail(apperror.NewRemoteFailure(method, "", fmt.Errorf("read response: %w", err)))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = serverMessage(env)
		}
		c.log.WithContext(ctx).Warnw("frappe call rejected",
			"method", method,
			"status", resp.StatusCode,
			"exc_type", env.ExcType,
			"message", msg,
		)
		return fail(apperror.NewRemoteFailure(method, msg, fmt.Errorf("http status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode))
	}
	if decodeErr != nil {
		return fail(apperror.NewRemoteFailure(method, "", fmt.Errorf("decode response: %w", decodeErr)))
	}

	if isEmpty(env.Message) {
		return fail(apperror.NewEmptyResponse(method))
	}
	if out != nil {
		if err := json.Unmarshal(env.Message, out); err != nil {
			return fail(apperror.NewRemoteFailure(method, "", fmt.Errorf("decode message: %w", err)))
		}
	}

	c.log.WithContext(ctx).Debugw("frappe call",
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start),
	)
	return nil
}

// checkPayload reports a decoded payload that misses required fields as an empty response.
func (c *Client) checkPayload(method string, v any) error {
	if err := validate.Struct(v); err != nil {
		return apperror.NewEmptyResponse(c.app + "." + method).
			WithDetail("fields", validate.Fields(err)).
			WithCause(err)
	}
	return nil
}

func isEmpty(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// serverMessage extracts the user-facing text of a Frappe error response.
// _server_messages is a JSON list of JSON-encoded {"message": ...} objects.
func serverMessage(env envelope) string {
	if env.ServerMessages != "" {
		var list []string
		if err := json.Unmarshal([]byte(env.ServerMessages), &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				var m struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal([]byte(item), &m); err == nil && m.Message != "" {
					msgs = append(msgs, m.Message)
				} else if item != "" {
					msgs = append(msgs, item)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if env.Exception != "" {
		// "frappe.exceptions.ValidationError: text"
		if _, text, ok := strings.Cut(env.Exception, ": "); ok {
			return strings.TrimSpace(text)
		}
		return env.Exception
	}
	var s string
	if err := json.Unmarshal(env.Message, &s); err == nil {
		return s
	}
	return ""
}

// Ping checks that the site answers.
func (c *Client) Ping(ctx context.Context) error {
	var pong string
	if err := c.do(ctx, http.MethodGet, "ping", nil, &pong); err != nil {
		return err
	}
	if pong != "pong" {
		return apperror.NewRemoteFailure("ping", "unexpected ping answer", errors.New(pong))
	}
	return nil
}
