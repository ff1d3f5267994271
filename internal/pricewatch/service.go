package pricewatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/messaging"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
)

// Service records scraped prices and fires price watches
type Service struct {
	store     Store
	publisher messaging.Publisher
	consumer  messaging.Consumer
	config    *config.Config
	now       func() time.Time
}

// NewPriceWatchService creates a new price watch service
func NewPriceWatchService(store Store, kafka *messaging.KafkaClient, cfg *config.Config) *Service {
	return &Service{
		store:     store,
		publisher: kafka,
		consumer:  kafka,
		config:    cfg,
		now:       time.Now,
	}
}

// Start consumes scraped offers and runs periodic snapshot cleanup
func (s *Service) Start(ctx context.Context) error {
	go s.consumeOffers(ctx)
	go s.periodicCleanup(ctx)
	return nil
}

func (s *Service) consumeOffers(ctx context.Context) {
	_ = s.consumer.ConsumeMessages(ctx, s.config.Kafka.OfferTopic, func(message []byte) error {
		var event models.OfferEvent
		if err := json.Unmarshal(message, &event); err != nil {
			return fmt.Errorf("failed to unmarshal offer event: %w", err)
		}
		return s.HandleOffer(ctx, event)
	})
}

// HandleOffer records the offer's price and notifies every watch it satisfies
func (s *Service) HandleOffer(ctx context.Context, event models.OfferEvent) error {
	offer := event.Offer
	key := offer.ProductKey()

	previous, err := s.store.LatestSnapshot(ctx, key)
	if err != nil {
		return err
	}

	var previousPrice, change float64
	if previous != nil {
		previousPrice = previous.Price
		change = calculatePercentageChange(previous.Price, offer.Price)
	}

	scrapedAt := event.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = s.now()
	}
	snapshot := &models.PriceSnapshot{
		Platform:      offer.Platform,
		ProductKey:    key,
		Name:          offer.Name,
		Query:         event.Query,
		URL:           offer.Redirect,
		Price:         offer.Price,
		MarketPrice:   offer.MarketPrice,
		PreviousPrice: previousPrice,
		ChangePercent: change,
		ScrapedAt:     scrapedAt,
	}
	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		return err
	}

	watches, err := s.store.ActiveWatches(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, w := range watches {
		if !matches(w, key, offer.Platform, offer.Name) || !shouldFire(w, offer.Price, change, now, s.config.PriceWatch.NotifyCooldown) {
			continue
		}

		alert := models.AlertEvent{
			UserID:        w.UserID,
			WatchID:       w.ID,
			Platform:      offer.Platform,
			ProductKey:    key,
			ProductName:   offer.Name,
			ProductURL:    offer.Redirect,
			PreviousPrice: previousPrice,
			NewPrice:      offer.Price,
			TargetPrice:   w.TargetPrice,
			ChangePercent: change,
		}
		log := logrus.WithFields(logrus.Fields{"watch_id": w.ID, "user_id": w.UserID, "product_key": key})
		if err := s.publisher.PublishMessage(ctx, s.config.Kafka.NotificationTopic,
			fmt.Sprintf("price-drop-%d-%d", w.UserID, w.ID), alert); err != nil {
			log.WithError(err).Error("Failed to publish price alert")
			continue
		}
		if err := s.store.MarkNotified(ctx, w.ID, now); err != nil {
			log.WithError(err).Error("Failed to stamp watch")
			continue
		}
		log.Info("Price alert sent")
	}

	return nil
}

// periodicCleanup drops snapshots past the retention window once a day
func (s *Service) periodicCleanup(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx); err != nil {
				logrus.WithError(err).Error("Failed to clean up price history")
			}
		}
	}
}

// Cleanup deletes snapshots older than the retention window
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.config.PriceWatch.RetentionDays)
	n, err := s.store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("Cleaned up price history")
	return n, nil
}
