package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/safebite/platform/internal/common/messaging"
	"github.com/safebite/platform/internal/scraper"
	"github.com/sirupsen/logrus"
)

func main() {
	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.WithField("signal", sig).Info("Received signal")
		cancel()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.Setup(cfg.LogLevel, cfg.Environment, "scraper")

	fetcher := scraper.NewFetcher(&cfg.Scraper)
	if c, ok := fetcher.(io.Closer); ok {
		defer c.Close()
	}

	var publisher messaging.Publisher
	if cfg.Scraper.PublishOffers {
		kafkaClient := messaging.NewKafkaClient(&cfg.Kafka)
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	scraperService, err := scraper.NewScraperService(cfg, fetcher, publisher)
	if err != nil {
		log.Fatalf("Failed to create scraper service: %v", err)
	}

	apiServer := scraper.NewAPI(cfg, scraperService)

	log.WithField("mode", cfg.Scraper.Mode).Infof("Starting scraper API server on port %d", cfg.Services.ScraperServicePort)
	if err := apiServer.Start(ctx); err != nil {
		log.Errorf("API server error: %v", err)
	}

	log.Info("Shutting down scraper service...")
}
