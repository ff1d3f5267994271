package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/messaging"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
)

const (
	channelBuffer = 100
	retentionDays = 30
)

// Service represents the notification service
type Service struct {
	store         Store
	consumer      messaging.Consumer
	config        *config.Config
	userChannels  map[uint]chan string
	channelsMutex sync.RWMutex
	now           func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(store Store, consumer messaging.Consumer, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		consumer:     consumer,
		config:       cfg,
		userChannels: make(map[uint]chan string),
		now:          time.Now,
	}
}

// Start starts the notification service
func (s *Service) Start(ctx context.Context) error {
	go s.consumeAlerts(ctx)
	go s.periodicCleanup(ctx)
	return nil
}

func (s *Service) consumeAlerts(ctx context.Context) {
	_ = s.consumer.ConsumeMessages(ctx, s.config.Kafka.NotificationTopic, func(message []byte) error {
		var alert models.AlertEvent
		if err := json.Unmarshal(message, &alert); err != nil {
			return fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		return s.HandleAlert(ctx, alert)
	})
}

// FormatAlert renders the user-facing text of a price alert
func FormatAlert(alert models.AlertEvent) string {
	if alert.TargetPrice > 0 && alert.NewPrice <= alert.TargetPrice {
		return fmt.Sprintf("Price drop alert: %s on %s reached your target ₹%.2f (now ₹%.2f)",
			alert.ProductName, alert.Platform, alert.TargetPrice, alert.NewPrice)
	}
	return fmt.Sprintf("Price drop alert: %s on %s is now ₹%.2f (was ₹%.2f)",
		alert.ProductName, alert.Platform, alert.NewPrice, alert.PreviousPrice)
}

// HandleAlert stores the alert and pushes it to the user's live channel
func (s *Service) HandleAlert(ctx context.Context, alert models.AlertEvent) error {
	message := FormatAlert(alert)
	log := logrus.WithField("user_id", alert.UserID)

	n := models.Notification{
		UserID:      alert.UserID,
		WatchID:     alert.WatchID,
		ProductKey:  alert.ProductKey,
		Message:     message,
		URL:         alert.ProductURL,
		DeliveredAt: s.now(),
	}
	if err := s.store.Save(ctx, &n); err != nil {
		log.WithError(err).Error("Failed to save notification")
	}

	s.deliver(alert.UserID, message)
	return nil
}

// deliver never blocks; a full channel drops the live push but the stored copy remains
func (s *Service) deliver(userID uint, message string) bool {
	s.channelsMutex.RLock()
	defer s.channelsMutex.RUnlock()

	channel, exists := s.userChannels[userID]
	if !exists {
		return false
	}
	select {
	case channel <- message:
		logrus.WithField("user_id", userID).Debug("Delivered notification")
		return true
	default:
		logrus.WithField("user_id", userID).Warn("Notification channel full, dropping live delivery")
		return false
	}
}

// periodicCleanup performs periodic cleanup of old notifications
func (s *Service) periodicCleanup(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupOldNotifications(ctx)
			s.channelsMutex.RLock()
			logrus.WithField("channels", len(s.userChannels)).Info("Active user channels")
			s.channelsMutex.RUnlock()
		}
	}
}

func (s *Service) cleanupOldNotifications(ctx context.Context) int64 {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	n, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Failed to clean up old notifications")
		return 0
	}
	logrus.WithField("deleted", n).Info("Cleaned up old notifications")
	return n
}

// RegisterUserChannel registers a new user channel, replacing any previous one
func (s *Service) RegisterUserChannel(userID uint) chan string {
	s.channelsMutex.Lock()
	defer s.channelsMutex.Unlock()

	if channel, exists := s.userChannels[userID]; exists {
		close(channel)
	}

	channel := make(chan string, channelBuffer)
	s.userChannels[userID] = channel

	return channel
}

// UnregisterUserChannel closes ch if it is still the user's current channel
func (s *Service) UnregisterUserChannel(userID uint, ch chan string) {
	s.channelsMutex.Lock()
	defer s.channelsMutex.Unlock()

	if channel, exists := s.userChannels[userID]; exists && channel == ch {
		close(channel)
		delete(s.userChannels, userID)
	}
}

// Notifications returns a page of a user's notifications
func (s *Service) Notifications(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	return s.store.List(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns how many notifications the user has not read
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkNotificationAsRead marks a notification as read
func (s *Service) MarkNotificationAsRead(ctx context.Context, id uint) error {
	return s.store.MarkRead(ctx, id)
}

// MarkAllNotificationsAsRead marks all notifications as read for a user
func (s *Service) MarkAllNotificationsAsRead(ctx context.Context, userID uint) error {
	return s.store.MarkAllRead(ctx, userID)
}
