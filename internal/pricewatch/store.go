package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safebite/platform/internal/common/db"
	"github.com/safebite/platform/internal/common/models"
	"gorm.io/gorm"
)

// ErrWatchNotFound is returned when a watch id does not exist
var ErrWatchNotFound = errors.New("price watch not found")

// Store persists price history and watches
type Store interface {
	LatestSnapshot(ctx context.Context, key string) (*models.PriceSnapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *models.PriceSnapshot) error
	History(ctx context.Context, key string, limit int) ([]models.PriceSnapshot, error)
	DeleteSnapshotsBefore(ctx context.Context, t time.Time) (int64, error)

	ActiveWatches(ctx context.Context) ([]models.PriceWatch, error)
	UserWatches(ctx context.Context, userID uint) ([]models.PriceWatch, error)
	CreateWatch(ctx context.Context, watch *models.PriceWatch) error
	DeleteWatch(ctx context.Context, id uint) error
	MarkNotified(ctx context.Context, id uint, at time.Time) error
}

// GormStore implements Store on Postgres
type GormStore struct {
	db *db.Database
}

// NewGormStore creates a store on top of database
func NewGormStore(database *db.Database) *GormStore {
	return &GormStore{db: database}
}

func (s *GormStore) LatestSnapshot(ctx context.Context, key string) (*models.PriceSnapshot, error) {
	var snapshot models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("product_key = ?", key).
		Order("scraped_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *GormStore) SaveSnapshot(ctx context.Context, snapshot *models.PriceSnapshot) error {
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *GormStore) History(ctx context.Context, key string, limit int) ([]models.PriceSnapshot, error) {
	var snapshots []models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("product_key = ?", key).
		Order("scraped_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshotsBefore hard-deletes snapshots scraped before t
func (s *GormStore) DeleteSnapshotsBefore(ctx context.Context, t time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("scraped_at < ?", t).
		Delete(&models.PriceSnapshot{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) ActiveWatches(ctx context.Context) ([]models.PriceWatch, error) {
	var watches []models.PriceWatch
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&watches).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active watches: %w", err)
	}
	return watches, nil
}

func (s *GormStore) UserWatches(ctx context.Context, userID uint) ([]models.PriceWatch, error) {
	var watches []models.PriceWatch
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&watches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user watches: %w", err)
	}
	return watches, nil
}

func (s *GormStore) CreateWatch(ctx context.Context, watch *models.PriceWatch) error {
	if err := s.db.WithContext(ctx).Create(watch).Error; err != nil {
		return fmt.Errorf("failed to create watch: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteWatch(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.PriceWatch{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete watch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWatchNotFound
	}
	return nil
}

func (s *GormStore) MarkNotified(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.PriceWatch{}).
		Where("id = ?", id).
		Update("last_notified_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update watch: %w", err)
	}
	return nil
}
