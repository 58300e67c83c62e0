package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adsphere/internal/domain"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"github.com/google/uuid"
)

const walmartAuthURL = "https://marketplace.walmartapis.com/v3/token"

var walmartEnvironmentURLs = map[string]string{
	"sandbox":    "https://sandbox.api.walmart.com/v3",
	"production": "https://api.walmart.com/v3",
}

// WalmartClient implements domain.PlatformClient and domain.CampaignManager against the Walmart Ads API
type WalmartClient struct {
	api    *apiClient
	creds  WalmartCredentials
	now    func() time.Time
	logger *logger.Logger
}

func NewWalmartClient(creds WalmartCredentials, opts ClientOptions, logger *logger.Logger, metrics *metrics.Metrics) (*WalmartClient, error) {
	if creds.Environment == "" {
		creds.Environment = "sandbox"
	}
	creds.Environment = strings.ToLower(creds.Environment)

	if err := validateCredentials(domain.PlatformWalmart, creds); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	baseURL := creds.APIURL
	if baseURL == "" {
		baseURL = walmartEnvironmentURLs[creds.Environment]
	}
	authURL := creds.AuthURL
	if authURL == "" {
		authURL = walmartAuthURL
	}

	c := &WalmartClient{creds: creds, now: opts.Clock, logger: logger}
	c.api = newAPIClient(
		domain.PlatformWalmart,
		baseURL,
		opts,
		c.tokenFetcher(opts.HTTPClient, authURL),
		func(req *http.Request) {
			req.Header.Set("WM_SEC.KEY_VERSION", "1")
			req.Header.Set("WM_CONSUMER.ID", creds.ClientID)
			req.Header.Set("WM_CONSUMER.CHANNEL.TYPE", creds.ChannelID)
			req.Header.Set("WM_QOS.CORRELATION_ID", uuid.NewString())
		},
		logger,
		metrics,
	)

	return c, nil
}

func (c *WalmartClient) Platform() domain.Platform {
	return domain.PlatformWalmart
}

// tokenFetcher performs the client_credentials grant with HTTP Basic auth
func (c *WalmartClient) tokenFetcher(client *http.Client, authURL string) TokenFetcher {
	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, fmt.Errorf("failed to create token request: %w", err)
		}
		req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("WM_SVC.NAME", "Walmart Marketplace")
		req.Header.Set("WM_QOS.CORRELATION_ID", uuid.NewString())

		return exchangeToken(client, req)
	}
}

func (c *WalmartClient) GetCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	key := "campaigns:" + c.creds.ChannelID
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Campaign, error) {
		query := url.Values{}
		query.Set("channelType", "SPONSORED_PRODUCTS")
		return c.listCampaigns(ctx, "get_campaigns", "/campaigns", query)
	})
}

// GetSBACampaigns lists Search Brand Amplifier campaigns
func (c *WalmartClient) GetSBACampaigns(ctx context.Context) ([]domain.Campaign, error) {
	key := "sba-campaigns:" + c.creds.ChannelID
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Campaign, error) {
		return c.listCampaigns(ctx, "get_sba_campaigns", "/sba-campaigns", nil)
	})
}

func (c *WalmartClient) listCampaigns(ctx context.Context, operation, path string, query url.Values) ([]domain.Campaign, error) {
	var payload walmartList[walmartCampaign]
	if err := c.api.get(ctx, operation, path, query, &payload); err != nil {
		return nil, err
	}
	records, err := payload.items(operation)
	if err != nil {
		return nil, err
	}

	now := c.now()
	return transformAll(records, func(p walmartCampaign) (domain.Campaign, error) {
		return p.toCampaign(now)
	})
}

// GetAds lists the ad groups of campaignID (all campaigns when empty) and fetches the ads of each group
func (c *WalmartClient) GetAds(ctx context.Context, campaignID string) ([]domain.Ad, error) {
	key := fmt.Sprintf("ads:%s:%s", c.creds.ChannelID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Ad, error) {
		query := url.Values{}
		query.Set("channelType", "SPONSORED_PRODUCTS")
		if campaignID != "" {
			query.Set("campaignIdFilter", campaignID)
		}

		var payload walmartList[walmartAdGroup]
		if err := c.api.get(ctx, "get_ad_groups", "/ad-groups", query, &payload); err != nil {
			return nil, err
		}
		groups, err := payload.items("get_ad_groups")
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(groups))
		for _, group := range groups {
			if group.AdGroupID == "" {
				return nil, domain.NewSchemaError(domain.PlatformWalmart, "ad group without adGroupId")
			}
			ids = append(ids, group.AdGroupID.String())
		}

		return fanOut(ctx, ids, c.fetchAdGroupAds)
	})
}

func (c *WalmartClient) fetchAdGroupAds(ctx context.Context, adGroupID string) ([]domain.Ad, error) {
	var payload walmartList[walmartAd]
	path := "/ad-groups/" + url.PathEscape(adGroupID) + "/ads"
	if err := c.api.get(ctx, "get_ad_group_ads", path, nil, &payload); err != nil {
		return nil, err
	}
	records, err := payload.items("get_ad_group_ads")
	if err != nil {
		return nil, err
	}

	now := c.now()
	return transformAll(records, func(p walmartAd) (domain.Ad, error) {
		return p.toAd(now)
	})
}

func (c *WalmartClient) GetCampaignPerformance(ctx context.Context, campaignID string, period domain.DateRange) (*domain.AdPerformance, error) {
	path := "/campaigns/" + url.PathEscape(campaignID) + "/performance"
	key := fmt.Sprintf("campaign-performance:%s:%s:%s:%s", c.creds.ChannelID, campaignID, period.StartDate(), period.EndDate())
	return c.performance(ctx, "get_campaign_performance", path, key, period)
}

func (c *WalmartClient) GetAdPerformance(ctx context.Context, adID string, period domain.DateRange) (*domain.AdPerformance, error) {
	path := "/ads/" + url.PathEscape(adID) + "/performance"
	key := fmt.Sprintf("ad-performance:%s:%s:%s:%s", c.creds.ChannelID, adID, period.StartDate(), period.EndDate())
	return c.performance(ctx, "get_ad_performance", path, key, period)
}

// performance reads the first DAILY row; an empty report means no delivery in the period
func (c *WalmartClient) performance(ctx context.Context, operation, path, key string, period domain.DateRange) (*domain.AdPerformance, error) {
	return cached(ctx, c.api, key, func(ctx context.Context) (*domain.AdPerformance, error) {
		query := url.Values{}
		query.Set("startDate", period.StartDate())
		query.Set("endDate", period.EndDate())
		query.Set("granularity", "DAILY")

		var payload walmartList[walmartPerformance]
		if err := c.api.get(ctx, operation, path, query, &payload); err != nil {
			return nil, err
		}
		rows, err := payload.items(operation)
		if err != nil {
			return nil, err
		}

		var row walmartPerformance
		if len(rows) > 0 {
			row = rows[0]
		}
		return row.toPerformance(c.now()), nil
	})
}

func (c *WalmartClient) GetKeywords(ctx context.Context, campaignID string) ([]domain.Keyword, error) {
	key := fmt.Sprintf("keywords:%s:%s", c.creds.ChannelID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Keyword, error) {
		query := url.Values{}
		query.Set("campaignIdFilter", campaignID)

		var payload walmartList[walmartKeyword]
		if err := c.api.get(ctx, "get_keywords", "/keywords", query, &payload); err != nil {
			return nil, err
		}
		records, err := payload.items("get_keywords")
		if err != nil {
			return nil, err
		}
		return transformAll(records, walmartKeyword.toKeyword)
	})
}

func (c *WalmartClient) GetTargeting(ctx context.Context, campaignID string) ([]domain.Target, error) {
	key := fmt.Sprintf("targets:%s:%s", c.creds.ChannelID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Target, error) {
		query := url.Values{}
		query.Set("campaignIdFilter", campaignID)

		var payload walmartList[walmartTarget]
		if err := c.api.get(ctx, "get_targeting", "/targeting", query, &payload); err != nil {
			return nil, err
		}
		records, err := payload.items("get_targeting")
		if err != nil {
			return nil, err
		}
		return transformAll(records, walmartTarget.toTarget)
	})
}

// UpdateBudget sets a campaign budget. Cached reads are dropped on success.
func (c *WalmartClient) UpdateBudget(ctx context.Context, campaignID string, budget float64) error {
	if campaignID == "" {
		return domain.NewValidationError("campaignId is required")
	}
	if budget <= 0 {
		return domain.NewValidationError("budget must be positive, got %v", budget)
	}

	err := c.api.call(ctx, apiRequest{
		operation: "update_budget",
		method:    http.MethodPut,
		path:      "/campaigns/" + url.PathEscape(campaignID) + "/budget",
		body:      walmartBudgetUpdate{Budget: budget},
	}, nil)
	if err != nil {
		return err
	}

	c.api.cache.Purge()
	c.logger.ForPlatform(ctx, domain.PlatformWalmart).WithFields(map[string]any{
		"campaign_id": campaignID,
		"budget":      budget,
	}).Info("Updated Walmart campaign budget")
	return nil
}

// UpdateKeywordBid sets a keyword bid. Cached reads are dropped on success.
func (c *WalmartClient) UpdateKeywordBid(ctx context.Context, keywordID string, bid float64) error {
	if keywordID == "" {
		return domain.NewValidationError("keywordId is required")
	}
	if bid <= 0 {
		return domain.NewValidationError("bid must be positive, got %v", bid)
	}

	err := c.api.call(ctx, apiRequest{
		operation: "update_keyword_bid",
		method:    http.MethodPut,
		path:      "/keywords/" + url.PathEscape(keywordID) + "/bid",
		body:      walmartBidUpdate{Bid: bid},
	}, nil)
	if err != nil {
		return err
	}

	c.api.cache.Purge()
	c.logger.ForPlatform(ctx, domain.PlatformWalmart).WithFields(map[string]any{
		"keyword_id": keywordID,
		"bid":        bid,
	}).Info("Updated Walmart keyword bid")
	return nil
}

// CreateCampaign creates an auto-targeted Sponsored Products campaign in the enabled state
func (c *WalmartClient) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	start := draft.StartDate
	if start.IsZero() {
		start = c.now()
	}
	body := walmartCampaignCreate{
		Name:          draft.Name,
		ChannelType:   "SPONSORED_PRODUCTS",
		Status:        "ENABLED",
		TargetingType: "AUTO",
		Budget:        draft.Budget,
		DailyBudget:   draft.DailyBudget,
		StartDate:     start.UTC().Format(time.RFC3339),
	}
	if draft.EndDate != nil {
		body.EndDate = draft.EndDate.UTC().Format(time.RFC3339)
	}

	campaign, err := c.writeCampaign(ctx, apiRequest{
		operation: "create_campaign",
		method:    http.MethodPost,
		path:      "/campaigns",
		body:      body,
	})
	if err != nil {
		return nil, err
	}
	campaign.UserID = draft.UserID
	return campaign, nil
}

// UpdateCampaign sends only the fields set on update
func (c *WalmartClient) UpdateCampaign(ctx context.Context, campaignID string, update domain.CampaignUpdate) (*domain.Campaign, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	return c.writeCampaign(ctx, apiRequest{
		operation: "update_campaign",
		method:    http.MethodPut,
		path:      "/campaigns/" + url.PathEscape(campaignID),
		body:      newWalmartCampaignUpdate(update),
	})
}

func (c *WalmartClient) writeCampaign(ctx context.Context, r apiRequest) (*domain.Campaign, error) {
	var payload *walmartCampaign
	if err := c.api.call(ctx, r, &payload); err != nil {
		return nil, err
	}
	c.api.cache.Purge()

	if payload == nil {
		return nil, domain.NewSchemaError(domain.PlatformWalmart, "%s: expected a campaign object", r.operation)
	}
	campaign, err := payload.toCampaign(c.now())
	if err != nil {
		return nil, err
	}

	c.logger.ForPlatform(ctx, domain.PlatformWalmart).WithFields(map[string]any{
		"operation":   r.operation,
		"campaign_id": campaign.ID,
	}).Info("Walmart campaign written")
	return &campaign, nil
}

// Ping lists campaigns without consulting the cache
func (c *WalmartClient) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("channelType", "SPONSORED_PRODUCTS")

	var payload walmartList[json.RawMessage]
	if err := c.api.get(ctx, "ping", "/campaigns", query, &payload); err != nil {
		return err
	}
	_, err := payload.items("ping")
	return err
}
