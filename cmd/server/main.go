package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adsphere/internal/delivery"
	"adsphere/internal/domain"
	"adsphere/internal/infrastructure"
	"adsphere/internal/usecase"
	"adsphere/pkg/config"
	"adsphere/pkg/logger"
	"adsphere/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(prometheus.DefaultRegisterer)

	clients, err := buildClients(cfg, log, m)
	if err != nil {
		log.WithError(err).Fatal("Invalid platform credentials")
	}
	if len(clients) == 0 {
		log.Warn("No advertising platform is configured; data endpoints will return empty results")
	}

	service := usecase.NewDataRetrievalService(clients, log)
	handlers := delivery.NewHTTPHandlers(service, log)
	router := delivery.NewHTTPRouter(handlers, log, m, prometheus.DefaultGatherer, cfg.Server).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(map[string]any{
			"port":      cfg.Server.Port,
			"platforms": service.ConfiguredPlatforms(),
		}).Info("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
		return
	}
	log.Info("Server stopped")
}

// buildClients constructs a client for every platform whose credentials are present
func buildClients(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) ([]domain.PlatformClient, error) {
	opts := infrastructure.ClientOptions{
		Timeout:         cfg.Upstream.RequestTimeout,
		CacheTTL:        cfg.Upstream.CacheTTL,
		CacheMaxEntries: cfg.Upstream.CacheMaxEntries,
		RateLimit:       cfg.Upstream.RateLimit,
		RateWindow:      cfg.Upstream.RateWindow,
	}

	var clients []domain.PlatformClient

	if a := cfg.Amazon; a != nil {
		client, err := infrastructure.NewAmazonClient(infrastructure.AmazonCredentials{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			RefreshToken: a.RefreshToken,
			ProfileID:    a.ProfileID,
			Region:       a.Region,
			APIURL:       a.APIURL,
			AuthURL:      a.AuthURL,
		}, opts, log, m)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if w := cfg.Walmart; w != nil {
		client, err := infrastructure.NewWalmartClient(infrastructure.WalmartCredentials{
			ClientID:     w.ClientID,
			ClientSecret: w.ClientSecret,
			ChannelID:    w.ChannelID,
			Environment:  w.Environment,
			APIURL:       w.APIURL,
			AuthURL:      w.AuthURL,
		}, opts, log, m)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	return clients, nil
}
