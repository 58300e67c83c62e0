package delivery

import (
	"net/http"

	"adsphere/internal/delivery/middleware"
	"adsphere/pkg/config"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	config   config.ServerConfig
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer, cfg config.ServerConfig) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		config:   cfg,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.config.RequestTimeout))

	corsConfig := cors.DefaultConfig()
	if r.config.CORSOrigin != "" {
		corsConfig.AllowOrigins = []string{r.config.CORSOrigin}
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(corsConfig))

	// Liveness and scrape endpoints sit outside the per-IP limit
	router.GET("/healthz", r.handlers.HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	router.Use(middleware.RateLimit(r.config.RateLimitPerSecond, r.config.RateLimitBurst, r.metrics))

	// Data routes, served under the gateway prefix and at the root
	data := router.Group("/api/data")
	{
		data.GET("", r.handlers.GetAPIInfo)
		r.registerDataRoutes(data)
	}
	r.registerDataRoutes(&router.RouterGroup)

	return router
}

func (r *HTTPRouter) registerDataRoutes(group *gin.RouterGroup) {
	group.GET("/campaigns", r.handlers.GetAllCampaigns)
	group.GET("/campaigns/:platform", r.handlers.GetCampaignsByPlatform)
	group.POST("/campaigns/:platform", r.handlers.CreateCampaign)
	group.PUT("/campaigns/:platform/:campaignId", r.handlers.UpdateCampaign)
	group.GET("/ads", r.handlers.GetAllAds)
	group.GET("/ads/:platform", r.handlers.GetAdsByPlatform)

	performance := group.Group("/performance")
	{
		performance.GET("/campaign/:platform/:campaignId", r.handlers.GetCampaignPerformance)
		performance.GET("/ad/:platform/:adId", r.handlers.GetAdPerformance)
	}

	group.GET("/keywords/:platform/:campaignId", r.handlers.GetKeywords)
	group.GET("/targeting/:platform/:campaignId", r.handlers.GetTargeting)
	group.GET("/health", r.handlers.PlatformHealth)

	walmart := group.Group("/walmart")
	{
		walmart.GET("/sba-campaigns", r.handlers.GetSBACampaigns)
		walmart.PUT("/campaigns/:campaignId/budget", r.handlers.UpdateCampaignBudget)
		walmart.PUT("/keywords/:keywordId/bid", r.handlers.UpdateKeywordBid)
	}
}
