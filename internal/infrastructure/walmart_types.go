package infrastructure

import (
	"strings"
	"time"

	"adsphere/internal/domain"
)

// walmartList is the {"elements": [...]} envelope every Walmart list endpoint returns.
// A missing elements key is a schema error; an empty array is not.
type walmartList[T any] struct {
	Elements *[]T `json:"elements"`
}

func (l walmartList[T]) items(operation string) ([]T, error) {
	if l.Elements == nil {
		return nil, domain.NewSchemaError(domain.PlatformWalmart, "%s: response has no elements array", operation)
	}
	return *l.Elements, nil
}

type walmartCampaign struct {
	CampaignID       flexID   `json:"campaignId"`
	Name             string   `json:"name"`
	Status           string   `json:"status"`
	Budget           float64  `json:"budget"`
	DailyBudget      *float64 `json:"dailyBudget"`
	StartDate        flexTime `json:"startDate"`
	EndDate          flexTime `json:"endDate"`
	CreatedDate      flexTime `json:"createdDate"`
	LastModifiedDate flexTime `json:"lastModifiedDate"`

	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Spend       float64  `json:"spend"`
	Sales       *float64 `json:"sales"`
	Orders      *int64   `json:"orders"`
	Conversions *int64   `json:"conversions"`
}

type walmartAdGroup struct {
	AdGroupID  flexID `json:"adGroupId"`
	CampaignID flexID `json:"campaignId"`
	Name       string `json:"name"`
}

type walmartAd struct {
	AdID             flexID   `json:"adId"`
	CampaignID       flexID   `json:"campaignId"`
	AdGroupID        flexID   `json:"adGroupId"`
	Name             string   `json:"name"`
	AdType           string   `json:"adType"`
	Status           string   `json:"status"`
	LandingPageURL   string   `json:"landingPageUrl"`
	CreatedDate      flexTime `json:"createdDate"`
	LastModifiedDate flexTime `json:"lastModifiedDate"`
	Creative         *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"creative"`
}

type walmartPerformance struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Spend       float64 `json:"spend"`
	Sales       float64 `json:"sales"`
}

type walmartKeyword struct {
	KeywordID   flexID  `json:"keywordId"`
	CampaignID  flexID  `json:"campaignId"`
	AdGroupID   flexID  `json:"adGroupId"`
	KeywordText string  `json:"keywordText"`
	MatchType   string  `json:"matchType"`
	Status      string  `json:"status"`
	Bid         float64 `json:"bid"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
}

type walmartTarget struct {
	TargetID       flexID  `json:"targetId"`
	CampaignID     flexID  `json:"campaignId"`
	AdGroupID      flexID  `json:"adGroupId"`
	Expression     any     `json:"expression"`
	ExpressionType string  `json:"expressionType"`
	Status         string  `json:"status"`
	Bid            float64 `json:"bid"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Spend          float64 `json:"spend"`
	Conversions    int64   `json:"conversions"`
}

type walmartBudgetUpdate struct {
	Budget float64 `json:"budget"`
}

type walmartBidUpdate struct {
	Bid float64 `json:"bid"`
}

func (p walmartCampaign) toCampaign(now time.Time) (domain.Campaign, error) {
	if p.CampaignID == "" {
		return domain.Campaign{}, domain.NewSchemaError(domain.PlatformWalmart, "campaign without campaignId")
	}

	return domain.Campaign{
		ID:          p.CampaignID.String(),
		Name:        p.Name,
		Platform:    domain.PlatformWalmart,
		Status:      walmartStatus(p.Status),
		Budget:      p.Budget,
		DailyBudget: p.DailyBudget,
		StartDate:   p.StartDate.Time,
		EndDate:     p.EndDate.ptr(),
		Metrics: domain.CampaignMetrics{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Spend,
			Sales:       p.Sales,
			Orders:      p.Orders,
			Conversions: p.Conversions,
		},
		CreatedAt: p.CreatedDate.or(now),
		UpdatedAt: p.LastModifiedDate.or(now),
	}, nil
}

func (p walmartAd) toAd(now time.Time) (domain.Ad, error) {
	if p.AdID == "" {
		return domain.Ad{}, domain.NewSchemaError(domain.PlatformWalmart, "ad without adId")
	}

	content := domain.AdContent{
		Title:      p.Name,
		LandingURL: p.LandingPageURL,
	}
	if p.Creative != nil {
		content.ImageURL = p.Creative.ImageURL
	}

	return domain.Ad{
		ID:          p.AdID.String(),
		CampaignID:  p.CampaignID.String(),
		Platform:    domain.PlatformWalmart,
		Name:        p.Name,
		Type:        walmartAdType(p.AdType),
		Content:     content,
		Status:      walmartStatus(p.Status),
		Performance: domain.NewAdPerformance(0, 0, 0, 0, 0, now),
		CreatedAt:   p.CreatedDate.or(now),
		UpdatedAt:   p.LastModifiedDate.or(now),
	}, nil
}

func (p walmartPerformance) toPerformance(now time.Time) *domain.AdPerformance {
	perf := domain.NewAdPerformance(p.Impressions, p.Clicks, p.Conversions, p.Spend, p.Sales, now)
	return &perf
}

func (p walmartKeyword) toKeyword() (domain.Keyword, error) {
	if p.KeywordID == "" {
		return domain.Keyword{}, domain.NewSchemaError(domain.PlatformWalmart, "keyword without keywordId")
	}
	return domain.Keyword{
		ID:         p.KeywordID.String(),
		CampaignID: p.CampaignID.String(),
		AdGroupID:  p.AdGroupID.String(),
		Text:       p.KeywordText,
		MatchType:  p.MatchType,
		Status:     walmartStatus(p.Status),
		Bid:        p.Bid,
		Performance: domain.TargetPerformance{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Spend,
			Conversions: p.Conversions,
		},
	}, nil
}

func (p walmartTarget) toTarget() (domain.Target, error) {
	if p.TargetID == "" {
		return domain.Target{}, domain.NewSchemaError(domain.PlatformWalmart, "target without targetId")
	}
	return domain.Target{
		ID:             p.TargetID.String(),
		CampaignID:     p.CampaignID.String(),
		AdGroupID:      p.AdGroupID.String(),
		Expression:     p.Expression,
		ExpressionType: p.ExpressionType,
		Status:         walmartStatus(p.Status),
		Bid:            p.Bid,
		Performance: domain.TargetPerformance{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Spend,
			Conversions: p.Conversions,
		},
	}, nil
}

func walmartStatus(status string) domain.Status {
	switch strings.ToUpper(status) {
	case "ENABLED":
		return domain.StatusActive
	case "PAUSED":
		return domain.StatusPaused
	case "ARCHIVED":
		return domain.StatusArchived
	default:
		return domain.StatusDraft
	}
}

func walmartAdType(adType string) domain.AdType {
	switch strings.ToUpper(adType) {
	case "SPONSORED_BRAND":
		return domain.AdTypeSponsoredBrand
	case "SEARCH_BRAND_AMPLIFIER":
		return domain.AdTypeSearchBrandAmplifier
	default:
		return domain.AdTypeSponsoredProduct
	}
}

type walmartCampaignCreate struct {
	Name          string   `json:"name"`
	ChannelType   string   `json:"channelType"`
	Status        string   `json:"status"`
	TargetingType string   `json:"targetingType"`
	Budget        float64  `json:"budget,omitempty"`
	DailyBudget   *float64 `json:"dailyBudget,omitempty"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate,omitempty"`
}

type walmartCampaignUpdate struct {
	Name        *string  `json:"name,omitempty"`
	DailyBudget *float64 `json:"dailyBudget,omitempty"`
	Status      string   `json:"status,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
}

func newWalmartCampaignUpdate(u domain.CampaignUpdate) walmartCampaignUpdate {
	body := walmartCampaignUpdate{
		Name:        u.Name,
		DailyBudget: u.DailyBudget,
	}
	if u.Status != nil {
		body.Status = walmartStatusCode(*u.Status)
	}
	if u.EndDate != nil {
		body.EndDate = u.EndDate.UTC().Format(time.RFC3339)
	}
	return body
}

func walmartStatusCode(status domain.Status) string {
	switch status {
	case domain.StatusPaused:
		return "PAUSED"
	case domain.StatusArchived:
		return "ARCHIVED"
	default:
		return "ENABLED"
	}
}
