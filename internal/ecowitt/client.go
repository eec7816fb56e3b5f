// Package ecowitt is a client for the EcoWitt cloud API v3.
//
// The vendor answers HTTP 200 for almost everything and reports problems in a
// {"code", "msg", "data"} envelope. An empty "data" array means "nothing for
// this parameter combination", so fetches walk a probe chain of alternate
// parameters before giving up with diagnostics.
package ecowitt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.ecowitt.net/api/v3"

	EndpointRealtime   = "/device/real_time"
	EndpointHistory    = "/device/history"
	EndpointDeviceInfo = "/device/info"

	// CodeTooFrequent is the vendor code for "operation too frequent".
	CodeTooFrequent = -1

	defaultTimeout        = 10 * time.Second
	defaultRateLimitDelay = 2 * time.Second
)

// Credentials identify a station to the vendor API.
type Credentials struct {
	ApplicationKey string
	APIKey         string
	MAC            string
}

func (c Credentials) values() url.Values {
	v := url.Values{}
	v.Set("application_key", c.ApplicationKey)
	v.Set("api_key", c.APIKey)
	v.Set("mac", c.MAC)
	return v
}

// Client talks to the EcoWitt API. It is safe for concurrent use.
type Client struct {
	baseURL        string
	timeout        time.Duration
	rateLimitDelay time.Duration
	httpCfg        common.HTTPClientConfig
	circuit        *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimitDelay sets the pause before the single rate-limit retry.
func WithRateLimitDelay(d time.Duration) Option {
	return func(c *Client) { c.rateLimitDelay = d }
}

// WithBackoff overrides transport-level retry settings.
func WithBackoff(b common.BackoffConfig) Option {
	return func(c *Client) { c.httpCfg.Backoff = b }
}

// NewClient creates an EcoWitt client sharing the given HTTP client.
func NewClient(httpClient *http.Client, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		timeout:        defaultTimeout,
		rateLimitDelay: defaultRateLimitDelay,
		httpCfg: common.HTTPClientConfig{
			Client:  httpClient,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewBreaker("ecowitt"),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is a decoded vendor response. Root keeps every top-level key since
// some station configurations report sensors beside "data" instead of in it.
type envelope struct {
	Code    int
	Message string
	Data    any
	Root    map[string]any
}

func (e envelope) rateLimited() bool {
	return e.Code == CodeTooFrequent || common.HasAny(e.Message, "too frequent")
}

// get issues one GET with the per-call timeout and decodes the envelope.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (envelope, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(callCtx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		metrics.VendorRequests.WithLabelValues("ecowitt", endpoint, "error").Inc()
		return envelope{}, apperr.VendorAPI(fmt.Sprintf("ecowitt %s request failed", endpoint), err)
	}
	defer resp.Body.Close()

	var root map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		metrics.VendorRequests.WithLabelValues("ecowitt", endpoint, "error").Inc()
		return envelope{}, apperr.VendorAPI(fmt.Sprintf("ecowitt %s returned malformed JSON", endpoint), err)
	}

	env := envelope{Root: root, Data: root["data"], Message: common.ToString(root["msg"])}
	if code, ok := common.ToFloat(root["code"]); ok {
		env.Code = int(code)
	}
	metrics.VendorRequests.WithLabelValues("ecowitt", endpoint, "ok").Inc()
	return env, nil
}

// getWithRateLimit retries exactly once after rateLimitDelay when the vendor
// reports the operation as too frequent. A second rate limit is returned as is.
func (c *Client) getWithRateLimit(ctx context.Context, endpoint string, params url.Values) (envelope, error) {
	env, err := c.get(ctx, endpoint, params)
	if err != nil || !env.rateLimited() {
		return env, err
	}

	metrics.VendorRateLimited.WithLabelValues(endpoint).Inc()
	c.logger.Warn("[EcoWitt] rate limited, retrying once",
		zap.String("endpoint", endpoint),
		zap.Duration("delay", c.rateLimitDelay),
		zap.String("vendor_msg", env.Message),
	)

	timer := time.NewTimer(c.rateLimitDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return envelope{}, apperr.VendorAPI(fmt.Sprintf("ecowitt %s cancelled", endpoint), ctx.Err())
	case <-timer.C:
	}

	env, err = c.get(ctx, endpoint, params)
	if err == nil && env.rateLimited() {
		metrics.VendorRateLimited.WithLabelValues(endpoint).Inc()
	}
	return env, err
}
