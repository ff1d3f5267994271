package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/db"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/safebite/platform/internal/common/messaging"
	"github.com/safebite/platform/internal/pricewatch"
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
	log := logging.Setup(cfg.LogLevel, cfg.Environment, "pricewatch")

	database, err := db.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateSchema(); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	kafkaClient := messaging.NewKafkaClient(&cfg.Kafka)
	defer kafkaClient.Close()

	store := pricewatch.NewGormStore(database)
	priceWatchService := pricewatch.NewPriceWatchService(store, kafkaClient, cfg)
	if err := priceWatchService.Start(ctx); err != nil {
		log.Fatalf("Failed to start price watch service: %v", err)
	}

	apiServer := pricewatch.NewAPI(store, cfg)

	log.Infof("Starting price watch API server on port %d", cfg.Services.PriceWatchServicePort)
	if err := apiServer.Start(ctx); err != nil {
		log.Errorf("API server error: %v", err)
	}

	log.Info("Shutting down price watch service...")
}
