package models

import (
	"time"

	"gorm.io/gorm"
)

// PriceSnapshot records one observed price of a scraped listing
type PriceSnapshot struct {
	gorm.Model
	Platform      string    `json:"platform" gorm:"index;not null"`
	ProductKey    string    `json:"product_key" gorm:"index:idx_snapshot_key_time,priority:1;not null"`
	Name          string    `json:"name"`
	Query         string    `json:"query"`
	URL           string    `json:"url"`
	Price         float64   `json:"price"`
	MarketPrice   float64   `json:"market_price"`
	PreviousPrice float64   `json:"previous_price"`
	ChangePercent float64   `json:"change_percent"`
	ScrapedAt     time.Time `json:"scraped_at" gorm:"index:idx_snapshot_key_time,priority:2"`
}

// PriceWatch is a user's request to be told when a listing gets cheaper
type PriceWatch struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"index;not null"`
	Platform       string     `json:"platform"`
	ProductKey     string     `json:"product_key" gorm:"index"`
	Keyword        string     `json:"keyword"`
	TargetPrice    float64    `json:"target_price"`
	DropPercent    float64    `json:"drop_percent"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
}

// Notification represents user notifications for price drops
type Notification struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"index"`
	WatchID     uint      `json:"watch_id"`
	ProductKey  string    `json:"product_key"`
	Message     string    `json:"message"`
	URL         string    `json:"url"`
	IsRead      bool      `json:"is_read" gorm:"default:false"`
	DeliveredAt time.Time `json:"delivered_at"`
}
