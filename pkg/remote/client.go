package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gabriel-vasile/mimetype"

	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

const (
	// DefaultBaseURL is the public SpaceX v3 API.
	DefaultBaseURL = "https://api.spacexdata.com/v3"

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 15 * time.Second

	// NullBodyMessage is reported when a 2xx response carries no payload.
	NullBodyMessage = "API call succeeded but response body was null."

	// DefaultMaxBodyBytes bounds a decoded response body.
	DefaultMaxBodyBytes = 32 << 20
)

// ErrBodyTooLarge is returned when a decoded response body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher retrieves the remote resources.
type Fetcher interface {
	CompanyInfo(ctx context.Context) outcome.Outcome[spacex.CompanyInfo]
	Launches(ctx context.Context) outcome.Outcome[[]spacex.Launch]
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// MaxBodyBytes bounds the decoded body. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Client is the HTTP implementation of Fetcher.
type Client struct {
	baseURL   string
	userAgent string
	maxBody   int64
	http      *http.Client
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The configured timeout
// is not applied to a supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(c *Client) { c.logger = l.NewComponentLogger("remote") }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *telemetry.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient creates a client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "rocketscience/dev"
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	c := &Client{
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: ua,
		maxBody:   maxBody,
		http:      &http.Client{Timeout: timeout},
		logger:    telemetry.NopLogger(),
		tracer:    telemetry.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompanyInfo fetches GET /info.
func (c *Client) CompanyInfo(ctx context.Context) outcome.Outcome[spacex.CompanyInfo] {
	return fetch[spacex.CompanyInfo](ctx, c, spacex.ResourceCompanyInfo, "/info")
}

// Launches fetches GET /launches.
func (c *Client) Launches(ctx context.Context) outcome.Outcome[[]spacex.Launch] {
	return fetch[[]spacex.Launch](ctx, c, spacex.ResourceLaunches, "/launches")
}

func fetch[T any](ctx context.Context, c *Client, resource, path string) outcome.Outcome[T] {
	target := c.baseURL + path
	ctx, span := c.tracer.StartFetchSpan(ctx, resource, target)
	defer span.End()

	timer := telemetry.NewTimer()
	var v T
	f := c.get(ctx, target, &v)
	elapsed := timer.Duration()

	logger := c.logger.WithResource(resource)
	if id := telemetry.RequestID(ctx); id != "" {
		logger = logger.WithRequestID(id)
	}

	if f != nil {
		f.WithResource(resource)
		c.metrics.RecordFetch(resource, string(f.Kind), elapsed)
		span.SetAttributes(telemetry.AttrFailureKind.String(string(f.Kind)))
		if f.StatusCode != 0 {
			span.SetAttributes(telemetry.AttrStatusCode.Int(f.StatusCode))
		}
		telemetry.RecordError(span, f)
		logger.WithError(f).Warnf("GET %s failed after %s", path, elapsed)
		return outcome.Fail[T](f)
	}

	c.metrics.RecordFetch(resource, telemetry.ResultSuccess, elapsed)
	telemetry.RecordSuccess(span)
	logger.Debugf("GET %s succeeded in %s", path, elapsed)
	return outcome.Success(v)
}

// get performs the request and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, target string, dst any) *outcome.Failure {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return outcome.NewUnknownFailure(fmt.Sprintf("building request: %v", err), err)
	}
	req.Header.Set("Accept", "application/json")
	// Setting Accept-Encoding turns off the transport's transparent gzip, so
	// both encodings are decoded in readBody.
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return outcome.NewNetworkFailure(outcome.DefaultNetworkMessage, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, c.maxBody)
	if errors.Is(err, ErrBodyTooLarge) {
		return outcome.NewUnknownFailure(
			fmt.Sprintf("response body exceeds the %d byte limit", c.maxBody), err)
	}
	if err != nil {
		return outcome.NewNetworkFailure(outcome.DefaultNetworkMessage, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return outcome.NewAPIFailure(resp.StatusCode, msg, nil)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return outcome.NewAPIFailure(resp.StatusCode, NullBodyMessage, nil)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		detected := mimetype.Detect(body)
		return outcome.NewUnknownFailure(
			fmt.Sprintf("unable to decode %s response body", detected.String()), err)
	}
	return nil
}

// readBody reads the whole response body, undoing brotli or gzip content
// encoding. A decoded body longer than limit fails with ErrBodyTooLarge.
func readBody(resp *http.Response, limit int64) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(r)
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
