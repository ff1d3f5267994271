package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safebite/platform/internal/catalog"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/db"
	"github.com/safebite/platform/internal/common/logging"
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
	log := logging.Setup(cfg.LogLevel, cfg.Environment, "catalog")

	mongo, err := db.NewMongoDB(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = mongo.Close(closeCtx)
	}()

	store := catalog.NewMongoStore(mongo, &cfg.Mongo)
	apiServer := catalog.NewAPI(store, cfg)

	log.Infof("Starting catalog API server on port %d", cfg.Server.Port)
	if err := apiServer.Start(ctx); err != nil {
		log.Errorf("API server error: %v", err)
	}

	log.Info("Shutting down catalog service...")
}
