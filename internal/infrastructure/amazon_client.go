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
)

const amazonAuthURL = "https://api.amazon.com/auth/o2/token"

var amazonRegionURLs = map[string]string{
	"na": "https://advertising-api.amazon.com",
	"eu": "https://advertising-api-eu.amazon.com",
	"fe": "https://advertising-api-fe.amazon.com",
}

// AmazonClient implements domain.PlatformClient against the Sponsored Products v2 API
type AmazonClient struct {
	api   *apiClient
	creds AmazonCredentials
	now   func() time.Time
}

func NewAmazonClient(creds AmazonCredentials, opts ClientOptions, logger *logger.Logger, metrics *metrics.Metrics) (*AmazonClient, error) {
	if creds.Region == "" {
		creds.Region = "na"
	}
	creds.Region = strings.ToLower(creds.Region)

	if err := validateCredentials(domain.PlatformAmazon, creds); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	baseURL := creds.APIURL
	if baseURL == "" {
		baseURL = amazonRegionURLs[creds.Region]
	}
	authURL := creds.AuthURL
	if authURL == "" {
		authURL = amazonAuthURL
	}

	c := &AmazonClient{creds: creds, now: opts.Clock}
	c.api = newAPIClient(
		domain.PlatformAmazon,
		baseURL,
		opts,
		c.tokenFetcher(opts.HTTPClient, authURL),
		func(req *http.Request) {
			req.Header.Set("Amazon-Advertising-API-ClientId", creds.ClientID)
		},
		logger,
		metrics,
	)

	return c, nil
}

func (c *AmazonClient) Platform() domain.Platform {
	return domain.PlatformAmazon
}

// tokenFetcher exchanges the long lived refresh token for an access token
func (c *AmazonClient) tokenFetcher(client *http.Client, authURL string) TokenFetcher {
	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", c.creds.RefreshToken)
		form.Set("client_id", c.creds.ClientID)
		form.Set("client_secret", c.creds.ClientSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, fmt.Errorf("failed to create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		return exchangeToken(client, req)
	}
}

func (c *AmazonClient) profileQuery() url.Values {
	query := url.Values{}
	query.Set("profileId", c.creds.ProfileID)
	return query
}

func (c *AmazonClient) GetCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	key := "campaigns:" + c.creds.ProfileID
	return cached(ctx, c.api, key, c.fetchCampaigns)
}

func (c *AmazonClient) fetchCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var payload []amazonCampaign
	if err := c.api.get(ctx, "get_campaigns", "/v2/sp/campaigns", c.profileQuery(), &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, domain.NewSchemaError(domain.PlatformAmazon, "get_campaigns: expected a JSON array")
	}

	now := c.now()
	return transformAll(payload, func(p amazonCampaign) (domain.Campaign, error) {
		return p.toCampaign(now)
	})
}

// GetAds lists the ad groups of campaignID (all campaigns when empty) and fetches the ads of each group
func (c *AmazonClient) GetAds(ctx context.Context, campaignID string) ([]domain.Ad, error) {
	key := fmt.Sprintf("ads:%s:%s", c.creds.ProfileID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Ad, error) {
		query := c.profileQuery()
		if campaignID != "" {
			query.Set("campaignIdFilter", campaignID)
		}

		var groups []amazonAdGroup
		if err := c.api.get(ctx, "get_ad_groups", "/v2/sp/adGroups", query, &groups); err != nil {
			return nil, err
		}
		if groups == nil {
			return nil, domain.NewSchemaError(domain.PlatformAmazon, "get_ad_groups: expected a JSON array")
		}

		ids := make([]string, 0, len(groups))
		for _, group := range groups {
			if group.AdGroupID == "" {
				return nil, domain.NewSchemaError(domain.PlatformAmazon, "ad group without adGroupId")
			}
			ids = append(ids, group.AdGroupID.String())
		}

		return fanOut(ctx, ids, c.fetchAdGroupAds)
	})
}

func (c *AmazonClient) fetchAdGroupAds(ctx context.Context, adGroupID string) ([]domain.Ad, error) {
	var payload []amazonAd
	path := "/v2/sp/adGroups/" + url.PathEscape(adGroupID) + "/ads"
	if err := c.api.get(ctx, "get_ad_group_ads", path, c.profileQuery(), &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, domain.NewSchemaError(domain.PlatformAmazon, "get_ad_group_ads: expected a JSON array")
	}

	now := c.now()
	return transformAll(payload, func(p amazonAd) (domain.Ad, error) {
		return p.toAd(now)
	})
}

func (c *AmazonClient) GetCampaignPerformance(ctx context.Context, campaignID string, period domain.DateRange) (*domain.AdPerformance, error) {
	query := c.periodQuery(period)
	query.Set("campaignIdFilter", campaignID)
	key := fmt.Sprintf("campaign-performance:%s:%s:%s:%s", c.creds.ProfileID, campaignID, period.StartDate(), period.EndDate())
	return c.summary(ctx, "get_campaign_performance", "/v2/sp/campaigns/summary", key, query)
}

func (c *AmazonClient) GetAdPerformance(ctx context.Context, adID string, period domain.DateRange) (*domain.AdPerformance, error) {
	query := c.periodQuery(period)
	query.Set("adIdFilter", adID)
	key := fmt.Sprintf("ad-performance:%s:%s:%s:%s", c.creds.ProfileID, adID, period.StartDate(), period.EndDate())
	return c.summary(ctx, "get_ad_performance", "/v2/sp/ads/summary", key, query)
}

func (c *AmazonClient) periodQuery(period domain.DateRange) url.Values {
	query := c.profileQuery()
	query.Set("startDate", period.StartDate())
	query.Set("endDate", period.EndDate())
	return query
}

func (c *AmazonClient) summary(ctx context.Context, operation, path, key string, query url.Values) (*domain.AdPerformance, error) {
	return cached(ctx, c.api, key, func(ctx context.Context) (*domain.AdPerformance, error) {
		var payload *amazonSummary
		if err := c.api.get(ctx, operation, path, query, &payload); err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, domain.NewSchemaError(domain.PlatformAmazon, "%s: expected a summary object", operation)
		}
		return payload.toPerformance(c.now()), nil
	})
}

func (c *AmazonClient) GetKeywords(ctx context.Context, campaignID string) ([]domain.Keyword, error) {
	key := fmt.Sprintf("keywords:%s:%s", c.creds.ProfileID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Keyword, error) {
		query := c.profileQuery()
		query.Set("campaignIdFilter", campaignID)

		var payload []amazonKeyword
		if err := c.api.get(ctx, "get_keywords", "/v2/sp/keywords", query, &payload); err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, domain.NewSchemaError(domain.PlatformAmazon, "get_keywords: expected a JSON array")
		}
		return transformAll(payload, amazonKeyword.toKeyword)
	})
}

func (c *AmazonClient) GetTargeting(ctx context.Context, campaignID string) ([]domain.Target, error) {
	key := fmt.Sprintf("targets:%s:%s", c.creds.ProfileID, campaignID)
	return cached(ctx, c.api, key, func(ctx context.Context) ([]domain.Target, error) {
		query := c.profileQuery()
		query.Set("campaignIdFilter", campaignID)

		var payload []amazonTarget
		if err := c.api.get(ctx, "get_targeting", "/v2/sp/targets", query, &payload); err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, domain.NewSchemaError(domain.PlatformAmazon, "get_targeting: expected a JSON array")
		}
		return transformAll(payload, amazonTarget.toTarget)
	})
}

// CreateCampaign creates an auto-targeted Sponsored Products campaign in the enabled state
func (c *AmazonClient) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	start := draft.StartDate
	if start.IsZero() {
		start = c.now()
	}
	body := amazonCampaignCreate{
		Name:          draft.Name,
		TargetingType: "auto",
		State:         "enabled",
		DailyBudget:   draft.EffectiveDailyBudget(),
		StartDate:     start.Format(domain.DateLayout),
	}
	if draft.EndDate != nil {
		body.EndDate = draft.EndDate.Format(domain.DateLayout)
	}

	campaign, err := c.writeCampaign(ctx, apiRequest{
		operation: "create_campaign",
		method:    http.MethodPost,
		path:      "/v2/sp/campaigns",
		query:     c.profileQuery(),
		body:      body,
	})
	if err != nil {
		return nil, err
	}
	campaign.UserID = draft.UserID
	return campaign, nil
}

// UpdateCampaign sends only the fields set on update
func (c *AmazonClient) UpdateCampaign(ctx context.Context, campaignID string, update domain.CampaignUpdate) (*domain.Campaign, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	return c.writeCampaign(ctx, apiRequest{
		operation: "update_campaign",
		method:    http.MethodPut,
		path:      "/v2/sp/campaigns/" + url.PathEscape(campaignID),
		query:     c.profileQuery(),
		body:      newAmazonCampaignUpdate(update),
	})
}

// writeCampaign sends a campaign mutation and decodes the campaign it returns. Cached reads are dropped on success.
func (c *AmazonClient) writeCampaign(ctx context.Context, r apiRequest) (*domain.Campaign, error) {
	var payload *amazonCampaign
	if err := c.api.call(ctx, r, &payload); err != nil {
		return nil, err
	}
	c.api.cache.Purge()

	if payload == nil {
		return nil, domain.NewSchemaError(domain.PlatformAmazon, "%s: expected a campaign object", r.operation)
	}
	campaign, err := payload.toCampaign(c.now())
	if err != nil {
		return nil, err
	}

	c.api.logger.ForPlatform(ctx, domain.PlatformAmazon).WithFields(map[string]any{
		"operation":   r.operation,
		"campaign_id": campaign.ID,
	}).Info("Amazon campaign written")
	return &campaign, nil
}

// Ping lists campaigns without consulting the cache
func (c *AmazonClient) Ping(ctx context.Context) error {
	var payload []json.RawMessage
	return c.api.get(ctx, "ping", "/v2/sp/campaigns", c.profileQuery(), &payload)
}
