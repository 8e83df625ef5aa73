// Package transport performs the single HTTP call behind every resource
// function: it attaches the session token and a request id, throttles
// outgoing traffic and records metrics. It never interprets envelopes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"freightdesk/internal/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// ErrBodyTooLarge means the response exceeded the body limit. The partial
// body is discarded rather than handed on as a complete download.
var ErrBodyTooLarge = errors.New("response body too large")

// TokenSource returns the bearer token to send, or "" for anonymous calls.
type TokenSource func() string

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; <= 0 disables throttling
	Burst      int
	Token      TokenSource
	HTTPClient *http.Client
	Logger     *slog.Logger
	// MaxBodyBytes caps a response body; <= 0 means 64 MiB.
	MaxBodyBytes int64
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      TokenSource
	logger     *slog.Logger
	maxBody    int64
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = maxBodyBytes
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    limiter,
		token:      cfg.Token,
		logger:     logger,
		maxBody:    maxBody,
	}, nil
}

// Multipart describes a single-file form upload.
type Multipart struct {
	Field    string
	Filename string
	Content  io.Reader
	Fields   map[string]string
}

type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "/loads/42".
	Path string
	// Query is an encoded query string, with or without the leading "?".
	Query     string
	JSON      any
	Multipart *Multipart
	Accept    string
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Filename reads the attachment name from Content-Disposition.
func (r *Response) Filename() string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}

	for _, part := range strings.Split(cd, ";") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(name, `"`)
		}
	}

	return ""
}

// Do performs exactly one HTTP call. A non-nil error means no response was
// received; HTTP error statuses are returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := httpReq.Header.Get(RequestIDHeader)
	started := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveClientRequest(req.Method, req.Path, metrics.OutcomeNetwork, time.Since(started))
		c.logger.Debug("backend call failed", "request_id", requestID, "method", req.Method, "path", req.Path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		metrics.ObserveClientRequest(req.Method, req.Path, metrics.OutcomeNetwork, time.Since(started))
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		metrics.ObserveClientRequest(req.Method, req.Path, metrics.OutcomeNetwork, time.Since(started))
		c.logger.Warn("backend response over limit", "request_id", requestID, "path", req.Path, "limit_bytes", c.maxBody)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrBodyTooLarge)
	}

	outcome := metrics.OutcomeSuccess
	if resp.StatusCode >= 400 {
		outcome = metrics.OutcomeHTTPError
	}
	metrics.ObserveClientRequest(req.Method, req.Path, outcome, time.Since(started))

	c.logger.Debug("backend call",
		"request_id", requestID,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if q := strings.TrimPrefix(req.Query, "?"); q != "" {
		target += "?" + q
	}

	var (
		body        io.Reader
		contentType string
	)

	switch {
	case req.Multipart != nil && req.JSON != nil:
		return nil, errors.New("request cannot carry both JSON and multipart bodies")
	case req.Multipart != nil:
		buf, ct, err := encodeMultipart(req.Multipart)
		if err != nil {
			return nil, err
		}
		body = buf
		contentType = ct
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())

	if c.token != nil {
		if token := strings.TrimSpace(c.token()); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return httpReq, nil
}

func encodeMultipart(m *Multipart) (*bytes.Buffer, string, error) {
	field := m.Field
	if field == "" {
		field = "file"
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for key, value := range m.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile(field, m.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if m.Content != nil {
		if _, err := io.Copy(part, m.Content); err != nil {
			return nil, "", fmt.Errorf("copy upload content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}
