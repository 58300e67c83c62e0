package delivery

import (
	"net/http"
	"time"

	"adsphere/internal/domain"
	"adsphere/internal/usecase"
	"adsphere/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "adsphere-data"
	serviceVersion = "1.0.0"
)

// handles HTTP requests
type HTTPHandlers struct {
	service *usecase.DataRetrievalService
	logger  *logger.Logger
}

// creates new HTTP handlers
func NewHTTPHandlers(service *usecase.DataRetrievalService, logger *logger.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger,
	}
}

type budgetRequest struct {
	Budget float64 `json:"budget" binding:"required,gt=0"`
}

type bidRequest struct {
	Bid float64 `json:"bid" binding:"required,gt=0"`
}

type createCampaignRequest struct {
	Name        string   `json:"name" binding:"required"`
	Budget      float64  `json:"budget" binding:"gte=0"`
	DailyBudget *float64 `json:"dailyBudget" binding:"omitempty,gt=0"`
	StartDate   string   `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string   `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	UserID      string   `json:"userId"`
}

func (r createCampaignRequest) draft() domain.CampaignDraft {
	draft := domain.CampaignDraft{
		Name:        r.Name,
		Budget:      r.Budget,
		DailyBudget: r.DailyBudget,
		UserID:      r.UserID,
	}
	if r.StartDate != "" {
		draft.StartDate, _ = time.Parse(domain.DateLayout, r.StartDate)
	}
	if r.EndDate != "" {
		end, _ := time.Parse(domain.DateLayout, r.EndDate)
		draft.EndDate = &end
	}
	return draft
}

type updateCampaignRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	DailyBudget *float64 `json:"dailyBudget" binding:"omitempty,gt=0"`
	Status      *string  `json:"status" binding:"omitempty,oneof=active paused archived"`
	EndDate     *string  `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

func (r updateCampaignRequest) update() domain.CampaignUpdate {
	update := domain.CampaignUpdate{
		Name:        r.Name,
		DailyBudget: r.DailyBudget,
	}
	if r.Status != nil {
		status := domain.Status(*r.Status)
		update.Status = &status
	}
	if r.EndDate != nil {
		end, _ := time.Parse(domain.DateLayout, *r.EndDate)
		update.EndDate = &end
	}
	return update
}

// GetAllCampaigns merges campaigns from every configured platform.
// Platforms that failed are listed under platformErrors unless all of them failed.
func (h *HTTPHandlers) GetAllCampaigns(c *gin.Context) {
	results := h.service.CollectCampaigns(c.Request.Context())
	respondCollected(h, c, results)
}

func (h *HTTPHandlers) GetCampaignsByPlatform(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	campaigns, err := h.service.GetCampaignsByPlatform(c.Request.Context(), platform)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.list(c, campaigns, len(campaigns))
}

func (h *HTTPHandlers) GetAllAds(c *gin.Context) {
	results := h.service.CollectAds(c.Request.Context(), c.Query("campaignId"))
	respondCollected(h, c, results)
}

func (h *HTTPHandlers) GetAdsByPlatform(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ads, err := h.service.GetAdsByPlatform(c.Request.Context(), platform, c.Query("campaignId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.list(c, ads, len(ads))
}

func (h *HTTPHandlers) GetCampaignPerformance(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}
	period, err := parseDateRange(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	perf, err := h.service.GetCampaignPerformance(c.Request.Context(), platform, c.Param("campaignId"), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perf)
}

func (h *HTTPHandlers) GetAdPerformance(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}
	period, err := parseDateRange(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	perf, err := h.service.GetAdPerformance(c.Request.Context(), platform, c.Param("adId"), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perf)
}

func (h *HTTPHandlers) GetKeywords(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	keywords, err := h.service.GetKeywords(c.Request.Context(), platform, c.Param("campaignId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.list(c, keywords, len(keywords))
}

func (h *HTTPHandlers) GetTargeting(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	targets, err := h.service.GetTargeting(c.Request.Context(), platform, c.Param("campaignId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.list(c, targets, len(targets))
}

func (h *HTTPHandlers) CreateCampaign(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.NewValidationError("invalid campaign: %v", err))
		return
	}

	campaign, err := h.service.CreateCampaign(c.Request.Context(), platform, req.draft())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Campaign created",
		"data":    campaign,
	})
}

func (h *HTTPHandlers) UpdateCampaign(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.NewValidationError("invalid campaign update: %v", err))
		return
	}

	campaign, err := h.service.UpdateCampaign(c.Request.Context(), platform, c.Param("campaignId"), req.update())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Campaign updated",
		"data":    campaign,
	})
}

// PlatformHealth reports a live connection check per platform
func (h *HTTPHandlers) PlatformHealth(c *gin.Context) {
	status := h.service.CheckConnections(c.Request.Context())

	respond(c, http.StatusOK, gin.H{
		"success":   true,
		"data":      status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandlers) GetSBACampaigns(c *gin.Context) {
	campaigns, err := h.service.GetSBACampaigns(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.list(c, campaigns, len(campaigns))
}

func (h *HTTPHandlers) UpdateCampaignBudget(c *gin.Context) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.NewValidationError("budget must be a positive number"))
		return
	}

	campaignID := c.Param("campaignId")
	if err := h.service.UpdateCampaignBudget(c.Request.Context(), domain.PlatformWalmart, campaignID, req.Budget); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Campaign budget updated",
		"data":    gin.H{"campaignId": campaignID, "budget": req.Budget},
	})
}

func (h *HTTPHandlers) UpdateKeywordBid(c *gin.Context) {
	var req bidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.NewValidationError("bid must be a positive number"))
		return
	}

	keywordID := c.Param("keywordId")
	if err := h.service.UpdateKeywordBid(c.Request.Context(), domain.PlatformWalmart, keywordID, req.Bid); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Keyword bid updated",
		"data":    gin.H{"keywordId": keywordID, "bid": req.Bid},
	})
}

// HealthCheck returns the liveness of the process itself
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"version":   serviceVersion,
		"platforms": h.service.ConfiguredPlatforms(),
	})
}

// GetAPIInfo returns the endpoint catalogue
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	platformParam := "AMAZON or WALMART (case-insensitive)"
	dateParams := gin.H{
		"startDate": "Required: Start date (YYYY-MM-DD)",
		"endDate":   "Required: End date (YYYY-MM-DD), not before startDate",
	}

	respond(c, http.StatusOK, gin.H{
		"service":     serviceName,
		"version":     serviceVersion,
		"description": "Unified campaign, ad and performance data across Amazon and Walmart advertising",
		"endpoints": gin.H{
			"campaigns": gin.H{
				"path":        "/api/data/campaigns[/:platform]",
				"methods":     []string{"GET"},
				"description": "Campaigns from every configured platform, or from one",
				"parameters":  gin.H{"platform": platformParam},
			},
			"campaign_create": gin.H{
				"path":    "/api/data/campaigns/:platform",
				"methods": []string{"POST"},
				"body":    "{name, budget, dailyBudget?, startDate? (YYYY-MM-DD), endDate?, userId?}",
			},
			"campaign_update": gin.H{
				"path":    "/api/data/campaigns/:platform/:campaignId",
				"methods": []string{"PUT"},
				"body":    "{name?, dailyBudget?, status? (active|paused|archived), endDate?}",
			},
			"ads": gin.H{
				"path":        "/api/data/ads[/:platform]",
				"methods":     []string{"GET"},
				"description": "Ads from every configured platform, or from one",
				"parameters":  gin.H{"platform": platformParam, "campaignId": "Optional: restrict to one campaign"},
			},
			"campaign_performance": gin.H{
				"path":       "/api/data/performance/campaign/:platform/:campaignId",
				"methods":    []string{"GET"},
				"parameters": dateParams,
				"example":    "/api/data/performance/campaign/AMAZON/AMZ-CAMP-2001?startDate=2026-02-01&endDate=2026-03-01",
			},
			"ad_performance": gin.H{
				"path":       "/api/data/performance/ad/:platform/:adId",
				"methods":    []string{"GET"},
				"parameters": dateParams,
			},
			"keywords": gin.H{
				"path":    "/api/data/keywords/:platform/:campaignId",
				"methods": []string{"GET"},
			},
			"targeting": gin.H{
				"path":    "/api/data/targeting/:platform/:campaignId",
				"methods": []string{"GET"},
			},
			"health": gin.H{
				"path":        "/api/data/health",
				"methods":     []string{"GET"},
				"description": "Live connection check per platform",
			},
			"walmart": gin.H{
				"sba_campaigns":   "GET /api/data/walmart/sba-campaigns",
				"campaign_budget": "PUT /api/data/walmart/campaigns/:campaignId/budget {\"budget\": number}",
				"keyword_bid":     "PUT /api/data/walmart/keywords/:keywordId/bid {\"bid\": number}",
			},
		},
	})
}

func parseDateRange(c *gin.Context) (domain.DateRange, error) {
	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw == "" || endRaw == "" {
		return domain.DateRange{}, domain.NewValidationError("startDate and endDate query parameters are required")
	}

	start, err := time.Parse(domain.DateLayout, startRaw)
	if err != nil {
		return domain.DateRange{}, domain.NewValidationError("startDate must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(domain.DateLayout, endRaw)
	if err != nil {
		return domain.DateRange{}, domain.NewValidationError("endDate must be in YYYY-MM-DD format")
	}

	return domain.DateRange{Start: start, End: end}, nil
}

func respondCollected[T any](h *HTTPHandlers, c *gin.Context, results map[domain.Platform]usecase.PlatformResult[T]) {
	items := make([]T, 0)
	platformErrors := make(map[string]string)
	var firstErr error

	for _, platform := range domain.Platforms {
		result, ok := results[platform]
		if !ok {
			continue
		}
		if result.Err != nil {
			platformErrors[platform.Label()] = result.Err.Error()
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		items = append(items, result.Items...)
	}

	if firstErr != nil && len(platformErrors) == len(results) {
		h.fail(c, firstErr)
		return
	}

	body := gin.H{
		"success": true,
		"data":    items,
		"count":   len(items),
	}
	if len(platformErrors) > 0 {
		body["platformErrors"] = platformErrors
	}
	respond(c, http.StatusOK, body)
}

func (h *HTTPHandlers) ok(c *gin.Context, data any) {
	respond(c, http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *HTTPHandlers) list(c *gin.Context, data any, count int) {
	respond(c, http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   count,
	})
}

func (h *HTTPHandlers) fail(c *gin.Context, err error) {
	status, label := errorStatus(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}

	respond(c, status, gin.H{
		"success": false,
		"error":   label,
		"message": err.Error(),
	})
}

func respond(c *gin.Context, status int, body gin.H) {
	body["request_id"] = c.GetString("request_id")
	c.JSON(status, body)
}
