package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"adsphere/internal/domain"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

const (
	// tokens are treated as expired this long before the provider's declared expiry
	tokenExpiryMargin = 60 * time.Second
	defaultTokenTTL   = time.Hour
)

// bounds a shared refresh, which outlives the caller that started it
const tokenRefreshTimeout = 30 * time.Second

// AccessToken is replaced as a whole on every refresh
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

func (t *AccessToken) validAt(now time.Time) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenFetcher performs one grant request against the provider's auth endpoint
type TokenFetcher func(ctx context.Context) (value string, ttl time.Duration, err error)

// TokenManager caches one bearer token per client. Concurrent callers that find no valid
// token share a single in-flight refresh.
type TokenManager struct {
	platform domain.Platform
	fetch    TokenFetcher
	now      func() time.Time
	margin   time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	token  *AccessToken
	flight singleflight.Group
}

func NewTokenManager(platform domain.Platform, fetch TokenFetcher, now func() time.Time, logger *logger.Logger, metrics *metrics.Metrics) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		platform: platform,
		fetch:    fetch,
		now:      now,
		margin:   tokenExpiryMargin,
		logger:   logger,
		metrics:  metrics,
	}
}

// Token returns the cached token, refreshing it first when missing or expired
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if value := m.current(); value != "" {
		return value, nil
	}
	return m.refresh(ctx)
}

// Renew is called after the provider rejected a token with 401. The rejected token is dropped
// unless another caller already replaced it.
func (m *TokenManager) Renew(ctx context.Context, rejected string) (string, error) {
	m.mu.Lock()
	if m.token != nil && m.token.Value == rejected {
		m.token = nil
	}
	m.mu.Unlock()

	return m.Token(ctx)
}

func (m *TokenManager) current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token.validAt(m.now()) {
		return m.token.Value
	}
	return ""
}

// refresh waits for the shared grant request. The request itself is detached from the
// caller's cancellation so one abandoned request cannot fail the others waiting on it.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	ch := m.flight.DoChan("token", func() (any, error) {
		if value := m.current(); value != "" {
			return value, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenRefreshTimeout)
		defer cancel()

		return m.fetchToken(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *TokenManager) fetchToken(ctx context.Context) (string, error) {
	value, ttl, err := m.fetch(ctx)
	if err == nil && value == "" {
		err = fmt.Errorf("token response carried no access_token")
	}
	if err != nil {
		m.mu.Lock()
		m.token = nil
		m.mu.Unlock()

		m.metrics.RecordTokenRefresh(m.platform.String(), "failure")
		m.logger.ForPlatform(ctx, m.platform).WithError(err).Error("Failed to refresh access token")
		return "", domain.NewAuthenticationError(m.platform, err)
	}

	margin := m.margin
	if ttl <= margin {
		margin = ttl / 2
	}
	expiresAt := m.now().Add(ttl - margin)

	m.mu.Lock()
	m.token = &AccessToken{Value: value, ExpiresAt: expiresAt}
	m.mu.Unlock()

	m.metrics.RecordTokenRefresh(m.platform.String(), "success")
	m.logger.ForPlatform(ctx, m.platform).WithField("expires_at", expiresAt.Format(time.RFC3339)).Info("Access token refreshed")

	return value, nil
}

// tokenGrant is the OAuth2 token endpoint response shared by both providers
type tokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// exchangeToken sends a prepared grant request and decodes the token response
func exchangeToken(client *http.Client, req *http.Request) (string, time.Duration, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, upstreamMessage(body, resp.StatusCode))
	}

	var grant tokenGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", 0, fmt.Errorf("failed to parse token response: %w", err)
	}

	ttl := time.Duration(grant.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return grant.AccessToken, ttl, nil
}
