package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"adsphere/internal/domain"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	maxResponseSize   = 10 << 20
	maxMessageLength  = 300
	defaultTimeout    = 30 * time.Second
	defaultRateLimit  = 100
	defaultRateWindow = 60 * time.Second
	fanOutConcurrency = 4
)

// ClientOptions tunes the transport, cache and rate window of a platform client
type ClientOptions struct {
	Timeout         time.Duration
	CacheTTL        time.Duration
	CacheMaxEntries int
	RateLimit       int
	RateWindow      time.Duration
	// Clock drives token expiry, cache age and the rate window; defaults to time.Now
	Clock      func() time.Time
	HTTPClient *http.Client
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.CacheMaxEntries <= 0 {
		o.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	if o.RateWindow <= 0 {
		o.RateWindow = defaultRateWindow
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.HTTPClient == nil {
		o.HTTPClient = newHTTPClient(o.Timeout)
	}
	return o
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// apiClient is the transport core shared by the provider clients: one token manager,
// one response cache and one rate window per instance.
type apiClient struct {
	platform domain.Platform
	baseURL  string
	client   *http.Client
	tokens   *TokenManager
	cache    *ResponseCache
	window   *RateWindow
	// sign adds provider specific headers on top of the bearer token
	sign    func(req *http.Request)
	logger  *logger.Logger
	metrics *metrics.Metrics
}

type apiRequest struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

func newAPIClient(platform domain.Platform, baseURL string, opts ClientOptions, fetch TokenFetcher, sign func(*http.Request), logger *logger.Logger, metrics *metrics.Metrics) *apiClient {
	return &apiClient{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   opts.HTTPClient,
		tokens:   NewTokenManager(platform, fetch, opts.Clock, logger, metrics),
		cache:    NewResponseCache(opts.CacheMaxEntries, opts.CacheTTL, opts.Clock),
		window:   NewRateWindow(opts.RateLimit, opts.RateWindow, opts.Clock),
		sign:     sign,
		logger:   logger,
		metrics:  metrics,
	}
}

func (c *apiClient) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	return c.call(ctx, apiRequest{operation: operation, method: http.MethodGet, path: path, query: query}, out)
}

// call admits the request through the rate window, then sends it with the current token.
// A 401 renews the token once and retries once; the retry is not counted again.
func (c *apiClient) call(ctx context.Context, r apiRequest, out any) error {
	start := time.Now()
	platform := c.platform.String()

	if !c.window.Allow() {
		c.metrics.RecordRateLimitRejection(platform)
		c.metrics.RecordExternalAPIFailure(platform, "rate_limit")
		c.logger.ForPlatform(ctx, c.platform).WithField("operation", r.operation).Warn("Local request window exhausted")
		return domain.NewRateLimitError(c.platform)
	}

	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			c.metrics.RecordExternalAPIFailure(platform, "json_marshal")
			return fmt.Errorf("failed to marshal %s payload: %w", r.operation, err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(platform, "authentication")
		return err
	}

	status, body, err := c.send(ctx, r, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		c.logger.ForPlatform(ctx, c.platform).WithField("operation", r.operation).Warn("Access token rejected, renewing and retrying once")

		token, err = c.tokens.Renew(ctx, token)
		if err != nil {
			c.metrics.RecordExternalAPIFailure(platform, "authentication")
			return err
		}

		status, body, err = c.send(ctx, r, payload, token)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized {
			c.metrics.RecordExternalAPIFailure(platform, "authentication")
			return domain.NewAuthenticationError(c.platform, fmt.Errorf("token rejected after refresh: %s", upstreamMessage(body, status)))
		}
	}

	duration := time.Since(start)

	if status < 200 || status >= 300 {
		c.metrics.RecordExternalAPICall(platform, r.operation, fmt.Sprintf("error_%d", status), duration)
		upstreamErr := &domain.UpstreamError{
			Platform:   c.platform,
			StatusCode: status,
			Message:    upstreamMessage(body, status),
		}
		c.logger.ForPlatform(ctx, c.platform).WithError(upstreamErr).WithFields(map[string]any{
			"operation": r.operation,
			"duration":  duration,
		}).Error("Upstream call failed")
		return upstreamErr
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			c.metrics.RecordExternalAPIFailure(platform, "json_parse")
			return domain.NewSchemaError(c.platform, "%s: %v", r.operation, err)
		}
	}

	c.metrics.RecordExternalAPICall(platform, r.operation, "success", duration)

	c.logger.ForPlatform(ctx, c.platform).WithFields(map[string]any{
		"operation": r.operation,
		"path":      r.path,
		"duration":  duration,
	}).Info("Upstream call completed")

	return nil
}

func (c *apiClient) send(ctx context.Context, r apiRequest, payload []byte, token string) (int, []byte, error) {
	platform := c.platform.String()

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(platform, "request_creation")
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.sign != nil {
		c.sign(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(platform, "network_error")
		return 0, nil, fmt.Errorf("failed to call %s API (%s): %w", c.platform.Label(), r.operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.metrics.RecordExternalAPIFailure(platform, "read_body")
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// upstreamMessage pulls a human readable message out of a provider error body
func upstreamMessage(body []byte, status int) string {
	var envelope struct {
		Message          string `json:"message"`
		Details          string `json:"details"`
		Error            any    `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return truncate(envelope.Message)
		case envelope.Details != "":
			return truncate(envelope.Details)
		case envelope.ErrorDescription != "":
			return truncate(envelope.ErrorDescription)
		case envelope.Error != nil:
			if s, ok := envelope.Error.(string); ok && s != "" {
				return truncate(s)
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text)
	}
	return http.StatusText(status)
}

func truncate(s string) string {
	if len(s) <= maxMessageLength {
		return s
	}
	return s[:maxMessageLength] + "..."
}

// cached serves key from the client's cache or stores the result of fetch under it.
// Hits never touch the rate window.
func cached[T any](ctx context.Context, c *apiClient, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.metrics.RecordCacheLookup(c.platform.String(), "hit")
			c.logger.ForPlatform(ctx, c.platform).WithField("key", key).Debug("Serving cached response")
			return typed, nil
		}
	}
	c.metrics.RecordCacheLookup(c.platform.String(), "miss")

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.cache.Set(key, value)
	return value, nil
}

// fanOut runs fetch for every id with bounded concurrency and concatenates the results.
// The first failure cancels the remaining fetches.
func fanOut[T any](ctx context.Context, ids []string, fetch func(context.Context, string) ([]T, error)) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutConcurrency)

	var mu sync.Mutex
	results := make(map[string][]T, len(ids))

	for _, id := range ids {
		g.Go(func() error {
			items, err := fetch(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = items
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// keep the order of ids so repeated calls return identical lists
	out := make([]T, 0)
	for _, id := range ids {
		out = append(out, results[id]...)
	}
	return out, nil
}
