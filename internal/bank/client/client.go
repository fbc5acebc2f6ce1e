// Package client talks to the remote banking service. Every operation returns a
// normalized envelope.Result; a non-nil error always means a transport failure.
package client

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

	"github.com/google/uuid"

	"facebank/internal/bank/envelope"
	"facebank/internal/bank/models"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	dErrors "facebank/pkg/domain-errors"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "facebank-client/1.0"
	maxResponseBytes = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	UserAgent  string
}

// Client is the remote bank API boundary.
type Client struct {
	baseURL   string
	client    HTTPDoer
	userAgent string
	logger    *slog.Logger
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
}

// Option configures optional collaborators.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client. BaseURL is required.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("bank client: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("bank client: invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:   base,
		client:    selectHTTPClient(cfg),
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func selectHTTPClient(cfg Config) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// call describes one remote operation.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	marker envelope.Marker
}

func (c *Client) do(ctx context.Context, in call) (res envelope.Result, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, tracer.SpanBankPrefix+in.op,
		tracer.String(tracer.AttrOperation, in.op),
	)
	defer func() {
		span.End(err)
		c.metrics.ObserveBankRequest(in.op, outcomeLabel(res, err), float64(time.Since(start).Milliseconds()))
	}()

	req, err := c.newRequest(ctx, in)
	if err != nil {
		return envelope.Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "failed to build request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return envelope.Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "request timed out")
		}
		return envelope.Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope.Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "failed to read response")
	}

	res = envelope.Normalize(resp.StatusCode, body, in.marker)
	span.SetAttributes(
		tracer.Int64(tracer.AttrStatusCode, int64(res.Status)),
		tracer.Bool(tracer.AttrOK, res.OK),
	)
	span.AddEvent(tracer.EventEnvelopeDecoded)

	if !res.OK {
		c.logger.InfoContext(ctx, "bank operation not successful",
			"operation", in.op,
			"status", res.Status,
			"message", res.Message,
			"request_id", req.Header.Get("X-Request-ID"),
		)
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, error) {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, reader)
	if err != nil {
		return nil, err
	}
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}
	return req, nil
}

func outcomeLabel(res envelope.Result, err error) string {
	switch {
	case err != nil:
		return "transport_error"
	case res.OK:
		return "ok"
	default:
		return "rejected"
	}
}

// Health checks whether the service answers at all.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+models.PathHealth, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "health check failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if !envelope.IsSuccessStatus(resp.StatusCode) {
		return dErrors.New(dErrors.CodeTransport, fmt.Sprintf("unhealthy status: %d", resp.StatusCode))
	}
	return nil
}
