package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"adsphere/internal/domain"
	"adsphere/pkg/logger"
)

// PlatformResult holds what one platform returned during a cross-platform read
type PlatformResult[T any] struct {
	Items []T
	Err   error
}

// DataRetrievalService dispatches reads to the configured platform clients and merges their results.
// Unconfigured platforms are skipped by aggregate reads and rejected by targeted ones.
type DataRetrievalService struct {
	clients map[domain.Platform]domain.PlatformClient
	logger  *logger.Logger
}

func NewDataRetrievalService(clients []domain.PlatformClient, logger *logger.Logger) *DataRetrievalService {
	byPlatform := make(map[domain.Platform]domain.PlatformClient, len(clients))
	for _, client := range clients {
		if client == nil {
			continue
		}
		byPlatform[client.Platform()] = client
	}

	return &DataRetrievalService{
		clients: byPlatform,
		logger:  logger,
	}
}

// ConfiguredPlatforms lists the platforms that have a client, in domain.Platforms order
func (s *DataRetrievalService) ConfiguredPlatforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(s.clients))
	for _, p := range domain.Platforms {
		if _, ok := s.clients[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

func (s *DataRetrievalService) client(platform domain.Platform) (domain.PlatformClient, error) {
	client, ok := s.clients[platform]
	if !ok {
		return nil, domain.NewNotConfiguredError(platform)
	}
	return client, nil
}

func (s *DataRetrievalService) manager(platform domain.Platform) (domain.CampaignManager, error) {
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	manager, ok := client.(domain.CampaignManager)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no campaign management surface", domain.ErrUnsupportedPlatform, platform.Label())
	}
	return manager, nil
}

func (s *DataRetrievalService) writer(platform domain.Platform) (domain.CampaignWriter, error) {
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	writer, ok := client.(domain.CampaignWriter)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support campaign writes", domain.ErrUnsupportedPlatform, platform.Label())
	}
	return writer, nil
}

// CollectCampaigns queries every configured platform concurrently and reports each outcome separately
func (s *DataRetrievalService) CollectCampaigns(ctx context.Context) map[domain.Platform]PlatformResult[domain.Campaign] {
	return collect(ctx, s, "campaigns", func(ctx context.Context, client domain.PlatformClient) ([]domain.Campaign, error) {
		return client.GetCampaigns(ctx)
	})
}

// GetAllCampaigns concatenates campaigns across platforms and fails if any configured platform failed
func (s *DataRetrievalService) GetAllCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return merge("campaigns", s.CollectCampaigns(ctx))
}

func (s *DataRetrievalService) GetCampaignsByPlatform(ctx context.Context, platform domain.Platform) ([]domain.Campaign, error) {
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetCampaigns(ctx)
}

// CollectAds is CollectCampaigns for ads; campaignID may be empty
func (s *DataRetrievalService) CollectAds(ctx context.Context, campaignID string) map[domain.Platform]PlatformResult[domain.Ad] {
	return collect(ctx, s, "ads", func(ctx context.Context, client domain.PlatformClient) ([]domain.Ad, error) {
		return client.GetAds(ctx, campaignID)
	})
}

func (s *DataRetrievalService) GetAllAds(ctx context.Context, campaignID string) ([]domain.Ad, error) {
	return merge("ads", s.CollectAds(ctx, campaignID))
}

func (s *DataRetrievalService) GetAdsByPlatform(ctx context.Context, platform domain.Platform, campaignID string) ([]domain.Ad, error) {
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetAds(ctx, campaignID)
}

func (s *DataRetrievalService) GetCampaignPerformance(ctx context.Context, platform domain.Platform, campaignID string, period domain.DateRange) (*domain.AdPerformance, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetCampaignPerformance(ctx, campaignID, period)
}

func (s *DataRetrievalService) GetAdPerformance(ctx context.Context, platform domain.Platform, adID string, period domain.DateRange) (*domain.AdPerformance, error) {
	if adID == "" {
		return nil, domain.NewValidationError("adId is required")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetAdPerformance(ctx, adID, period)
}

func (s *DataRetrievalService) GetKeywords(ctx context.Context, platform domain.Platform, campaignID string) ([]domain.Keyword, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetKeywords(ctx, campaignID)
}

func (s *DataRetrievalService) GetTargeting(ctx context.Context, platform domain.Platform, campaignID string) ([]domain.Target, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}
	return client.GetTargeting(ctx, campaignID)
}

// CheckConnections pings every platform; unconfigured or failing platforms report false
func (s *DataRetrievalService) CheckConnections(ctx context.Context) map[domain.Platform]bool {
	var mu sync.Mutex
	status := make(map[domain.Platform]bool, len(domain.Platforms))
	for _, p := range domain.Platforms {
		status[p] = false
	}

	var wg sync.WaitGroup
	for platform, client := range s.clients {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := client.Ping(ctx)
			if err != nil {
				s.logger.WithContext(ctx).WithError(err).WithField("platform", platform).Warn("Platform connection check failed")
			}

			mu.Lock()
			status[platform] = err == nil
			mu.Unlock()
		}()
	}
	wg.Wait()

	return status
}

// GetSBACampaigns lists Walmart Search Brand Amplifier campaigns
func (s *DataRetrievalService) GetSBACampaigns(ctx context.Context) ([]domain.Campaign, error) {
	manager, err := s.manager(domain.PlatformWalmart)
	if err != nil {
		return nil, err
	}
	return manager.GetSBACampaigns(ctx)
}

func (s *DataRetrievalService) UpdateCampaignBudget(ctx context.Context, platform domain.Platform, campaignID string, budget float64) error {
	manager, err := s.manager(platform)
	if err != nil {
		return err
	}
	return manager.UpdateBudget(ctx, campaignID, budget)
}

func (s *DataRetrievalService) UpdateKeywordBid(ctx context.Context, platform domain.Platform, keywordID string, bid float64) error {
	manager, err := s.manager(platform)
	if err != nil {
		return err
	}
	return manager.UpdateKeywordBid(ctx, keywordID, bid)
}

// CreateCampaign validates the draft before anything is sent to the platform
func (s *DataRetrievalService) CreateCampaign(ctx context.Context, platform domain.Platform, draft domain.CampaignDraft) (*domain.Campaign, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	writer, err := s.writer(platform)
	if err != nil {
		return nil, err
	}

	campaign, err := writer.CreateCampaign(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"platform":    platform,
		"campaign_id": campaign.ID,
		"user_id":     draft.UserID,
	}).Info("Campaign created")
	return campaign, nil
}

func (s *DataRetrievalService) UpdateCampaign(ctx context.Context, platform domain.Platform, campaignID string, update domain.CampaignUpdate) (*domain.Campaign, error) {
	if campaignID == "" {
		return nil, domain.NewValidationError("campaignId is required")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	writer, err := s.writer(platform)
	if err != nil {
		return nil, err
	}
	return writer.UpdateCampaign(ctx, campaignID, update)
}

// collect runs fetch against every configured client. A failing platform never cancels the others.
func collect[T any](ctx context.Context, s *DataRetrievalService, resource string, fetch func(context.Context, domain.PlatformClient) ([]T, error)) map[domain.Platform]PlatformResult[T] {
	start := time.Now()

	var mu sync.Mutex
	results := make(map[domain.Platform]PlatformResult[T], len(s.clients))

	var wg sync.WaitGroup
	for platform, client := range s.clients {
		wg.Add(1)
		go func() {
			defer wg.Done()

			items, err := fetch(ctx, client)
			if err != nil {
				s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"platform": platform,
					"resource": resource,
				}).Error("Failed to fetch from platform")
			}

			mu.Lock()
			results[platform] = PlatformResult[T]{Items: items, Err: err}
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"resource":  resource,
		"platforms": len(results),
		"duration":  time.Since(start),
	}).Info("Collected platform data")

	return results
}

// merge concatenates results in domain.Platforms order. Any failure fails the whole read and names every failing platform.
func merge[T any](resource string, results map[domain.Platform]PlatformResult[T]) ([]T, error) {
	items := make([]T, 0)
	var failed []string
	var errs []error

	for _, platform := range domain.Platforms {
		result, ok := results[platform]
		if !ok {
			continue
		}
		if result.Err != nil {
			failed = append(failed, platform.Label())
			errs = append(errs, result.Err)
			continue
		}
		items = append(items, result.Items...)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch %s from %s: %w", resource, strings.Join(failed, ", "), errors.Join(errs...))
	}
	return items, nil
}
