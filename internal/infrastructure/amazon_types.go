package infrastructure

import (
	"strings"
	"time"

	"adsphere/internal/domain"
)

// Amazon Advertising API v2 payloads. Only the fields the service reads are declared.

type amazonCampaign struct {
	CampaignID      flexID   `json:"campaignId"`
	Name            string   `json:"name"`
	State           string   `json:"state"`
	DailyBudget     *float64 `json:"dailyBudget"`
	Budget          *float64 `json:"budget"`
	StartDate       flexTime `json:"startDate"`
	EndDate         flexTime `json:"endDate"`
	CreationDate    flexTime `json:"creationDate"`
	LastUpdatedDate flexTime `json:"lastUpdatedDate"`

	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Cost        float64  `json:"cost"`
	Sales       *float64 `json:"sales"`
	Orders      *int64   `json:"orders"`
	ACOS        *float64 `json:"acos"`
	ROAS        *float64 `json:"roas"`
}

type amazonAdGroup struct {
	AdGroupID  flexID `json:"adGroupId"`
	CampaignID flexID `json:"campaignId"`
	Name       string `json:"name"`
}

type amazonAd struct {
	AdID            flexID   `json:"adId"`
	CampaignID      flexID   `json:"campaignId"`
	AdGroupID       flexID   `json:"adGroupId"`
	Name            string   `json:"name"`
	CreativeType    string   `json:"creativeType"`
	State           string   `json:"state"`
	LandingPageURL  string   `json:"landingPageUrl"`
	CreationDate    flexTime `json:"creationDate"`
	LastUpdatedDate flexTime `json:"lastUpdatedDate"`
	Creative        *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"creative"`
}

type amazonSummary struct {
	Impressions              int64   `json:"impressions"`
	Clicks                   int64   `json:"clicks"`
	Cost                     float64 `json:"cost"`
	AttributedConversions30d int64   `json:"attributedConversions30d"`
	AttributedSales30d       float64 `json:"attributedSales30d"`
}

type amazonKeyword struct {
	KeywordID                flexID  `json:"keywordId"`
	CampaignID               flexID  `json:"campaignId"`
	AdGroupID                flexID  `json:"adGroupId"`
	KeywordText              string  `json:"keywordText"`
	MatchType                string  `json:"matchType"`
	State                    string  `json:"state"`
	Bid                      float64 `json:"bid"`
	Impressions              int64   `json:"impressions"`
	Clicks                   int64   `json:"clicks"`
	Cost                     float64 `json:"cost"`
	AttributedConversions30d int64   `json:"attributedConversions30d"`
}

type amazonTarget struct {
	TargetID                 flexID  `json:"targetId"`
	CampaignID               flexID  `json:"campaignId"`
	AdGroupID                flexID  `json:"adGroupId"`
	Expression               any     `json:"expression"`
	ExpressionType           string  `json:"expressionType"`
	State                    string  `json:"state"`
	Bid                      float64 `json:"bid"`
	Impressions              int64   `json:"impressions"`
	Clicks                   int64   `json:"clicks"`
	Cost                     float64 `json:"cost"`
	AttributedConversions30d int64   `json:"attributedConversions30d"`
}

func (p amazonCampaign) toCampaign(now time.Time) (domain.Campaign, error) {
	if p.CampaignID == "" {
		return domain.Campaign{}, domain.NewSchemaError(domain.PlatformAmazon, "campaign without campaignId")
	}

	budget := derefFloat(p.Budget)
	if p.DailyBudget != nil && *p.DailyBudget != 0 {
		budget = *p.DailyBudget
	}

	return domain.Campaign{
		ID:          p.CampaignID.String(),
		Name:        p.Name,
		Platform:    domain.PlatformAmazon,
		Status:      amazonStatus(p.State),
		Budget:      budget,
		DailyBudget: p.DailyBudget,
		StartDate:   p.StartDate.Time,
		EndDate:     p.EndDate.ptr(),
		Metrics: domain.CampaignMetrics{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Cost,
			Sales:       p.Sales,
			Orders:      p.Orders,
			ACOS:        p.ACOS,
			ROAS:        p.ROAS,
		},
		CreatedAt: p.CreationDate.or(now),
		UpdatedAt: p.LastUpdatedDate.or(now),
	}, nil
}

func (p amazonAd) toAd(now time.Time) (domain.Ad, error) {
	if p.AdID == "" {
		return domain.Ad{}, domain.NewSchemaError(domain.PlatformAmazon, "ad without adId")
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
		Platform:    domain.PlatformAmazon,
		Name:        p.Name,
		Type:        amazonAdType(p.CreativeType),
		Content:     content,
		Status:      amazonStatus(p.State),
		Performance: domain.NewAdPerformance(0, 0, 0, 0, 0, now),
		CreatedAt:   p.CreationDate.or(now),
		UpdatedAt:   p.LastUpdatedDate.or(now),
	}, nil
}

func (p amazonSummary) toPerformance(now time.Time) *domain.AdPerformance {
	perf := domain.NewAdPerformance(p.Impressions, p.Clicks, p.AttributedConversions30d, p.Cost, p.AttributedSales30d, now)
	return &perf
}

func (p amazonKeyword) toKeyword() (domain.Keyword, error) {
	if p.KeywordID == "" {
		return domain.Keyword{}, domain.NewSchemaError(domain.PlatformAmazon, "keyword without keywordId")
	}
	return domain.Keyword{
		ID:         p.KeywordID.String(),
		CampaignID: p.CampaignID.String(),
		AdGroupID:  p.AdGroupID.String(),
		Text:       p.KeywordText,
		MatchType:  p.MatchType,
		Status:     amazonStatus(p.State),
		Bid:        p.Bid,
		Performance: domain.TargetPerformance{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Cost,
			Conversions: p.AttributedConversions30d,
		},
	}, nil
}

func (p amazonTarget) toTarget() (domain.Target, error) {
	if p.TargetID == "" {
		return domain.Target{}, domain.NewSchemaError(domain.PlatformAmazon, "target without targetId")
	}
	return domain.Target{
		ID:             p.TargetID.String(),
		CampaignID:     p.CampaignID.String(),
		AdGroupID:      p.AdGroupID.String(),
		Expression:     p.Expression,
		ExpressionType: p.ExpressionType,
		Status:         amazonStatus(p.State),
		Bid:            p.Bid,
		Performance: domain.TargetPerformance{
			Impressions: p.Impressions,
			Clicks:      p.Clicks,
			Spend:       p.Cost,
			Conversions: p.AttributedConversions30d,
		},
	}, nil
}

func amazonStatus(state string) domain.Status {
	switch strings.ToLower(state) {
	case "enabled":
		return domain.StatusActive
	case "paused":
		return domain.StatusPaused
	case "archived":
		return domain.StatusArchived
	default:
		return domain.StatusDraft
	}
}

func amazonAdType(creativeType string) domain.AdType {
	switch strings.ToLower(creativeType) {
	case "sp_brand_ad":
		return domain.AdTypeSponsoredBrand
	case "sp_display_ad":
		return domain.AdTypeSponsoredDisplay
	default:
		return domain.AdTypeSponsoredProduct
	}
}

type amazonCampaignCreate struct {
	Name          string  `json:"name"`
	TargetingType string  `json:"targetingType"`
	State         string  `json:"state"`
	DailyBudget   float64 `json:"dailyBudget"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate,omitempty"`
}

type amazonCampaignUpdate struct {
	Name        *string  `json:"name,omitempty"`
	DailyBudget *float64 `json:"dailyBudget,omitempty"`
	State       string   `json:"state,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
}

func newAmazonCampaignUpdate(u domain.CampaignUpdate) amazonCampaignUpdate {
	body := amazonCampaignUpdate{
		Name:        u.Name,
		DailyBudget: u.DailyBudget,
	}
	if u.Status != nil {
		body.State = amazonState(*u.Status)
	}
	if u.EndDate != nil {
		body.EndDate = u.EndDate.Format(domain.DateLayout)
	}
	return body
}

// amazonState is the inverse of amazonStatus for the writable statuses
func amazonState(status domain.Status) string {
	switch status {
	case domain.StatusPaused:
		return "paused"
	case domain.StatusArchived:
		return "archived"
	default:
		return "enabled"
	}
}
