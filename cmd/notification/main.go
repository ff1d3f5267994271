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
	"github.com/safebite/platform/internal/notification"
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
	log := logging.Setup(cfg.LogLevel, cfg.Environment, "notification")

	database, err := db.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	kafkaClient := messaging.NewKafkaClient(&cfg.Kafka)
	defer kafkaClient.Close()

	notificationService := notification.NewNotificationService(notification.NewGormStore(database), kafkaClient, cfg)
	if err := notificationService.Start(ctx); err != nil {
		log.Fatalf("Failed to start notification service: %v", err)
	}

	apiServer := notification.NewAPI(cfg, notificationService)

	log.Infof("Starting notification API server on port %d", cfg.Services.NotificationServicePort)
	if err := apiServer.Start(ctx); err != nil {
		log.Errorf("API server error: %v", err)
	}

	log.Info("Shutting down notification service...")
}
