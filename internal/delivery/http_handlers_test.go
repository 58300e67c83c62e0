package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adsphere/internal/domain"
	"adsphere/internal/usecase"
	"adsphere/pkg/config"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	platform  domain.Platform
	campaigns []domain.Campaign
	err       error
	pingErr   error
	perf      *domain.AdPerformance

	budgetCalls int
	lastDraft   domain.CampaignDraft
	lastUpdate  domain.CampaignUpdate
}

func (s *stubClient) Platform() domain.Platform { return s.platform }

func (s *stubClient) GetCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return s.campaigns, s.err
}

func (s *stubClient) GetAds(ctx context.Context, campaignID string) ([]domain.Ad, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Ad{{ID: s.platform.Label() + "-AD", CampaignID: campaignID, Platform: s.platform}}, nil
}

func (s *stubClient) GetCampaignPerformance(ctx context.Context, campaignID string, period domain.DateRange) (*domain.AdPerformance, error) {
	return s.perf, s.err
}

func (s *stubClient) GetAdPerformance(ctx context.Context, adID string, period domain.DateRange) (*domain.AdPerformance, error) {
	if adID == "panic" {
		panic("boom")
	}
	return s.perf, s.err
}

func (s *stubClient) GetKeywords(ctx context.Context, campaignID string) ([]domain.Keyword, error) {
	return []domain.Keyword{{ID: "k-1", CampaignID: campaignID, Text: "air fryer"}}, s.err
}

func (s *stubClient) GetTargeting(ctx context.Context, campaignID string) ([]domain.Target, error) {
	return []domain.Target{}, s.err
}

func (s *stubClient) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubClient) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastDraft = draft
	return &domain.Campaign{ID: "NEW-1", Name: draft.Name, Platform: s.platform, Budget: draft.EffectiveDailyBudget(), UserID: draft.UserID}, nil
}

func (s *stubClient) UpdateCampaign(ctx context.Context, campaignID string, update domain.CampaignUpdate) (*domain.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastUpdate = update
	campaign := &domain.Campaign{ID: campaignID, Platform: s.platform, Status: domain.StatusActive}
	if update.Status != nil {
		campaign.Status = *update.Status
	}
	return campaign, nil
}

type stubManager struct {
	stubClient
}

func (s *stubManager) GetSBACampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return s.campaigns, s.err
}

func (s *stubManager) UpdateBudget(ctx context.Context, campaignID string, budget float64) error {
	s.budgetCalls++
	return s.err
}

func (s *stubManager) UpdateKeywordBid(ctx context.Context, keywordID string, bid float64) error {
	return s.err
}

func amazonStub() *stubClient {
	return &stubClient{
		platform:  domain.PlatformAmazon,
		campaigns: []domain.Campaign{{ID: "AMZ-1", Platform: domain.PlatformAmazon}},
	}
}

func walmartStub() *stubManager {
	return &stubManager{stubClient{
		platform:  domain.PlatformWalmart,
		campaigns: []domain.Campaign{{ID: "WM-1", Platform: domain.PlatformWalmart}, {ID: "WM-2", Platform: domain.PlatformWalmart}},
	}}
}

func setupRouter(t *testing.T, cfg config.ServerConfig, clients ...domain.PlatformClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	service := usecase.NewDataRetrievalService(clients, log)
	handlers := NewHTTPHandlers(service, log)
	return NewHTTPRouter(handlers, log, m, reg, cfg).SetupRoutes()
}

type envelope struct {
	Success        bool              `json:"success"`
	Data           json.RawMessage   `json:"data"`
	Count          int               `json:"count"`
	Error          string            `json:"error"`
	Message        string            `json:"message"`
	RequestID      string            `json:"request_id"`
	PlatformErrors map[string]string `json:"platformErrors"`
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestGetAllCampaigns(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, amazonStub(), walmartStub())

	for _, target := range []string{"/api/data/campaigns", "/campaigns"} {
		w, env := do(t, router, http.MethodGet, target, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, 3, env.Count)
		assert.Empty(t, env.PlatformErrors)
		assert.NotEmpty(t, env.RequestID)

		var campaigns []domain.Campaign
		require.NoError(t, json.Unmarshal(env.Data, &campaigns))
		assert.Equal(t, "AMZ-1", campaigns[0].ID)
	}
}

func TestGetAllCampaigns_PartialFailure(t *testing.T) {
	amazon := amazonStub()
	amazon.err = &domain.UpstreamError{Platform: domain.PlatformAmazon, StatusCode: 500, Message: "boom"}
	router := setupRouter(t, config.ServerConfig{}, amazon, walmartStub())

	w, env := do(t, router, http.MethodGet, "/api/data/campaigns", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Count)
	assert.Contains(t, env.PlatformErrors["AMAZON"], "status 500")
}

func TestGetAllCampaigns_AllFailed(t *testing.T) {
	amazon := amazonStub()
	amazon.err = domain.NewRateLimitError(domain.PlatformAmazon)
	router := setupRouter(t, config.ServerConfig{}, amazon)

	w, env := do(t, router, http.MethodGet, "/api/data/campaigns", "")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Rate limit exceeded", env.Error)
}

func TestGetAllCampaigns_NothingConfigured(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{})

	w, env := do(t, router, http.MethodGet, "/api/data/campaigns", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestGetCampaignsByPlatform(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, walmartStub())

	w, env := do(t, router, http.MethodGet, "/api/data/campaigns/walmart", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Count)

	w, env = do(t, router, http.MethodGet, "/api/data/campaigns/AMAZON", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Platform not configured", env.Error)
	assert.Contains(t, env.Message, "AMAZON")

	w, env = do(t, router, http.MethodGet, "/api/data/campaigns/ebay", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", env.Error)
}

func TestGetAds(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, amazonStub(), walmartStub())

	w, env := do(t, router, http.MethodGet, "/api/data/ads?campaignId=c-7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Count)

	var ads []domain.Ad
	require.NoError(t, json.Unmarshal(env.Data, &ads))
	assert.Equal(t, "c-7", ads[0].CampaignID)

	w, env = do(t, router, http.MethodGet, "/api/data/ads/Walmart", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Count)
}

func TestGetCampaignPerformance(t *testing.T) {
	amazon := amazonStub()
	perf := domain.NewAdPerformance(154703, 1122, 37, 1398.77, 5758.19, time.Now())
	amazon.perf = &perf
	router := setupRouter(t, config.ServerConfig{}, amazon)

	w, env := do(t, router, http.MethodGet,
		"/api/data/performance/campaign/AMAZON/AMZ-CAMP-2001?startDate=2026-02-01&endDate=2026-03-01", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.AdPerformance
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.InDelta(t, 0.725, got.CTR, 0.001)
	assert.InDelta(t, 1.247, got.CPC, 0.001)
	assert.InDelta(t, 4.1166, got.ROAS, 0.0001)
}

func TestPerformance_DateValidation(t *testing.T) {
	amazon := amazonStub()
	perf := domain.NewAdPerformance(0, 0, 0, 0, 0, time.Now())
	amazon.perf = &perf
	router := setupRouter(t, config.ServerConfig{}, amazon)

	targets := []string{
		"/api/data/performance/campaign/AMAZON/c-1?startDate=2026-02-01",
		"/api/data/performance/campaign/AMAZON/c-1?startDate=02/01/2026&endDate=2026-03-01",
		"/api/data/performance/campaign/AMAZON/c-1?startDate=2026-03-01&endDate=2026-02-01",
		"/api/data/performance/ad/AMAZON/a-1?endDate=2026-03-01",
	}
	for _, target := range targets {
		w, env := do(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.False(t, env.Success)
	}

	w, _ := do(t, router, http.MethodGet, "/api/data/performance/ad/amazon/a-1?startDate=2026-02-01&endDate=2026-02-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"auth", domain.NewAuthenticationError(domain.PlatformWalmart, errors.New("invalid_client")), http.StatusUnauthorized},
		{"upstream not found", &domain.UpstreamError{Platform: domain.PlatformWalmart, StatusCode: 404, Message: "no campaign"}, http.StatusNotFound},
		{"upstream forbidden", &domain.UpstreamError{Platform: domain.PlatformWalmart, StatusCode: 403, Message: "denied"}, http.StatusForbidden},
		{"upstream bad request", &domain.UpstreamError{Platform: domain.PlatformWalmart, StatusCode: 400, Message: "bad filter"}, http.StatusBadGateway},
		{"upstream server error", &domain.UpstreamError{Platform: domain.PlatformWalmart, StatusCode: 503, Message: "down"}, http.StatusBadGateway},
		{"schema", domain.NewSchemaError(domain.PlatformWalmart, "missing elements"), http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unclassified", errors.New("something odd"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walmart := walmartStub()
			walmart.err = tt.err
			router := setupRouter(t, config.ServerConfig{}, walmart)

			w, env := do(t, router, http.MethodGet, "/api/data/keywords/WALMART/WM-1", "")

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestKeywordsAndTargeting(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, walmartStub())

	w, env := do(t, router, http.MethodGet, "/keywords/walmart/WM-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Count)

	w, env = do(t, router, http.MethodGet, "/targeting/walmart/WM-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestPlatformHealth(t *testing.T) {
	amazon := amazonStub()
	amazon.pingErr = errors.New("connection refused")
	router := setupRouter(t, config.ServerConfig{}, amazon)

	w, env := do(t, router, http.MethodGet, "/api/data/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"amazon": false, "walmart": false}`, string(env.Data))
}

func TestWalmartCampaignManagement(t *testing.T) {
	walmart := walmartStub()
	router := setupRouter(t, config.ServerConfig{}, amazonStub(), walmart)

	w, env := do(t, router, http.MethodGet, "/api/data/walmart/sba-campaigns", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Count)

	w, env = do(t, router, http.MethodPut, "/api/data/walmart/campaigns/WM-1/budget", `{"budget": 125.5}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 1, walmart.budgetCalls)

	w, env = do(t, router, http.MethodPut, "/api/data/walmart/campaigns/WM-1/budget", `{"budget": -3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", env.Error)
	assert.Equal(t, 1, walmart.budgetCalls)

	w, _ = do(t, router, http.MethodPut, "/api/data/walmart/keywords/k-1/bid", `{"bid": 0.45}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPut, "/api/data/walmart/keywords/k-1/bid", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalmartCampaignManagement_NotConfigured(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, amazonStub())

	w, env := do(t, router, http.MethodGet, "/api/data/walmart/sba-campaigns", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Platform not configured", env.Error)
}

func TestServiceEndpoints(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, walmartStub())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "req-123", health["request_id"])
	assert.Equal(t, []any{"walmart"}, health["platforms"])

	w, _ = do(t, router, http.MethodGet, "/api/data", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/data/performance/campaign/:platform/:campaignId")

	// a request has been served, so the counter family is exported
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestPanicRecovery(t *testing.T) {
	amazon := amazonStub()
	router := setupRouter(t, config.ServerConfig{}, amazon)

	w, env := do(t, router, http.MethodGet, "/api/data/performance/ad/AMAZON/panic?startDate=2026-02-01&endDate=2026-02-02", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Error)
}

func TestInboundRateLimit(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{RateLimitPerSecond: 0.01, RateLimitBurst: 2}, walmartStub())

	for i := 0; i < 2; i++ {
		w, _ := do(t, router, http.MethodGet, "/api/data", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w, env := do(t, router, http.MethodGet, "/api/data/campaigns", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", env.Error)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// health checks and scrapes from the same client are never limited
	for i := 0; i < 5; i++ {
		w, _ = do(t, router, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestTimeoutIsAppliedToContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(t, config.ServerConfig{RequestTimeout: time.Second})

	var deadline time.Time
	var ok bool
	router.GET("/deadline", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deadline", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestCreateCampaign(t *testing.T) {
	amazon := amazonStub()
	router := setupRouter(t, config.ServerConfig{}, amazon)

	w, env := do(t, router, http.MethodPost, "/api/data/campaigns/AMAZON",
		`{"name": "Summer Push", "budget": 900, "dailyBudget": 30, "startDate": "2026-06-01", "endDate": "2026-08-31", "userId": "user-7"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var campaign domain.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &campaign))
	assert.Equal(t, "NEW-1", campaign.ID)
	assert.Equal(t, 30.0, campaign.Budget)
	assert.Equal(t, "user-7", campaign.UserID)

	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), amazon.lastDraft.StartDate)
	require.NotNil(t, amazon.lastDraft.EndDate)
	assert.Equal(t, "2026-08-31", amazon.lastDraft.EndDate.Format(domain.DateLayout))
}

func TestCreateCampaign_Invalid(t *testing.T) {
	router := setupRouter(t, config.ServerConfig{}, amazonStub())

	bodies := []string{
		`{"budget": 900}`,
		`{"name": "Bad date", "budget": 900, "startDate": "06/01/2026"}`,
		`{"name": "No budget"}`,
		`{"name": "Reversed", "budget": 900, "startDate": "2026-06-01", "endDate": "2026-05-01"}`,
		`not json`,
	}
	for _, body := range bodies {
		w, env := do(t, router, http.MethodPost, "/api/data/campaigns/amazon", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Invalid request", env.Error, body)
	}
}

func TestUpdateCampaign(t *testing.T) {
	walmart := walmartStub()
	router := setupRouter(t, config.ServerConfig{}, walmart)

	w, env := do(t, router, http.MethodPut, "/campaigns/walmart/WM-1", `{"status": "paused", "endDate": "2026-09-30"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var campaign domain.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &campaign))
	assert.Equal(t, "WM-1", campaign.ID)
	assert.Equal(t, domain.StatusPaused, campaign.Status)
	require.NotNil(t, walmart.lastUpdate.EndDate)
	assert.Equal(t, "2026-09-30", walmart.lastUpdate.EndDate.Format(domain.DateLayout))

	w, _ = do(t, router, http.MethodPut, "/campaigns/walmart/WM-1", `{"status": "draft"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPut, "/campaigns/walmart/WM-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, router, http.MethodPut, "/campaigns/amazon/AMZ-1", `{"name": "Renamed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Platform not configured", env.Error)
}

func TestUpdateCampaign_UpstreamNotFound(t *testing.T) {
	walmart := walmartStub()
	walmart.err = &domain.UpstreamError{Platform: domain.PlatformWalmart, StatusCode: 404, Message: "campaign not found"}
	router := setupRouter(t, config.ServerConfig{}, walmart)

	w, env := do(t, router, http.MethodPut, "/api/data/campaigns/WALMART/missing", `{"name": "Renamed"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, env.Message, "campaign not found")
}
