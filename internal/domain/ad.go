package domain

import "time"

// Ad references its owning campaign by id only
type Ad struct {
	ID          string        `json:"id"`
	CampaignID  string        `json:"campaignId"`
	Platform    Platform      `json:"platform"`
	Name        string        `json:"name"`
	Type        AdType        `json:"type"`
	Content     AdContent     `json:"content"`
	Status      Status        `json:"status"`
	Budget      float64       `json:"budget"`
	Performance AdPerformance `json:"performance"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type AdContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	LandingURL  string   `json:"landingUrl"`
	Keywords    []string `json:"keywords,omitempty"`
	Targeting   []string `json:"targeting,omitempty"`
}

// Keyword is a bid-able search term attached to an ad group
type Keyword struct {
	ID          string            `json:"id"`
	CampaignID  string            `json:"campaignId"`
	AdGroupID   string            `json:"adGroupId"`
	Text        string            `json:"keywordText"`
	MatchType   string            `json:"matchType"`
	Status      Status            `json:"status"`
	Bid         float64           `json:"bid"`
	Performance TargetPerformance `json:"performance"`
}

// Target is a product or audience targeting expression
type Target struct {
	ID             string            `json:"id"`
	CampaignID     string            `json:"campaignId"`
	AdGroupID      string            `json:"adGroupId"`
	Expression     any               `json:"expression"`
	ExpressionType string            `json:"expressionType"`
	Status         Status            `json:"status"`
	Bid            float64           `json:"bid"`
	Performance    TargetPerformance `json:"performance"`
}

type TargetPerformance struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
}
