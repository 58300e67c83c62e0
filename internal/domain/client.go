package domain

import (
	"context"
)

// interface implemented once per advertising provider
type PlatformClient interface {
	Platform() Platform
	GetCampaigns(ctx context.Context) ([]Campaign, error)
	GetAds(ctx context.Context, campaignID string) ([]Ad, error)
	GetCampaignPerformance(ctx context.Context, campaignID string, period DateRange) (*AdPerformance, error)
	GetAdPerformance(ctx context.Context, adID string, period DateRange) (*AdPerformance, error)
	GetKeywords(ctx context.Context, campaignID string) ([]Keyword, error)
	GetTargeting(ctx context.Context, campaignID string) ([]Target, error)
	// live, uncached call used for connection checks
	Ping(ctx context.Context) error
}

// Walmart-only surface: Search Brand Amplifier listings and bid/budget mutation
type CampaignManager interface {
	GetSBACampaigns(ctx context.Context) ([]Campaign, error)
	UpdateBudget(ctx context.Context, campaignID string, budget float64) error
	UpdateKeywordBid(ctx context.Context, keywordID string, bid float64) error
}

// CampaignWriter creates and edits campaigns on a provider. Successful writes invalidate cached reads.
type CampaignWriter interface {
	CreateCampaign(ctx context.Context, draft CampaignDraft) (*Campaign, error)
	UpdateCampaign(ctx context.Context, campaignID string, update CampaignUpdate) (*Campaign, error)
}
