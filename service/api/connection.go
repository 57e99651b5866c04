package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 5
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

// ClientHost issues GET requests against a single host, waiting on a shared
// limiter before each request.
type ClientHost struct {
	client  *http.Client
	host    string
	scheme  string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

type Client struct {
	Connection Connection
	ApiKey     string
	Logger     zerolog.Logger
}

type ClientOption func(*ClientHost)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientHost) {
		c.client.Timeout = timeout
	}
}

// WithRateLimit allows requestsPerMinute requests, with a burst of one.
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *ClientHost) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
}

// WithScheme overrides https, used against local test servers.
func WithScheme(scheme string) ClientOption {
	return func(c *ClientHost) {
		c.scheme = scheme
	}
}

// WithLogger sets the logger used for request tracing and for warnings raised
// while parsing responses. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *ClientHost) {
		c.logger = logger
	}
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	if err := conn.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	target := *endpoint
	target.Scheme = conn.scheme
	target.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}

	conn.logger.Debug().Str("host", conn.host).Str("path", target.Path).Msg("requesting")

	res, err := conn.client.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", res.StatusCode, conn.host)
	}

	return res, nil
}

func ClientFactory(host string, apiKey string, opts ...ClientOption) *Client {
	clientHost := &ClientHost{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		host:   host,
		scheme: "https",
		logger: zerolog.Nop(),
	}
	WithRateLimit(DefaultRequestsPerMinute)(clientHost)

	for _, opt := range opts {
		opt(clientHost)
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
		Logger:     clientHost.logger,
	}
}
