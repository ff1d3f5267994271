package pricewatch

import (
	"errors"
	"strings"
	"time"

	"github.com/safebite/platform/internal/common/models"
)

// calculatePercentageChange calculates the percentage change between two prices
func calculatePercentageChange(oldPrice, newPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	return ((newPrice - oldPrice) / oldPrice) * 100
}

// matches reports whether watch w covers the listing. A watch names either an
// exact product key or a keyword, optionally restricted to one platform.
func matches(w models.PriceWatch, key, platform, name string) bool {
	if !w.IsActive {
		return false
	}
	if w.ProductKey != "" {
		return strings.EqualFold(w.ProductKey, key)
	}
	if w.Keyword == "" {
		return false
	}
	if w.Platform != "" && !strings.EqualFold(w.Platform, platform) {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(w.Keyword))
}

// shouldFire reports whether price or change crosses the watch thresholds
// and the watch is out of its cooldown
func shouldFire(w models.PriceWatch, price, change float64, now time.Time, cooldown time.Duration) bool {
	if w.LastNotifiedAt != nil && now.Sub(*w.LastNotifiedAt) < cooldown {
		return false
	}
	if w.TargetPrice > 0 && price > 0 && price <= w.TargetPrice {
		return true
	}
	return w.DropPercent > 0 && change <= -w.DropPercent
}

var (
	errUserRequired   = errors.New("user_id is required")
	errTargetRequired = errors.New("product_key or keyword is required")
	errTargetPrice    = errors.New("target_price must not be negative")
	errDropPercent    = errors.New("drop_percent must be between 0 and 100")
	errNoThreshold    = errors.New("target_price or drop_percent is required")
)

func validateWatch(w models.PriceWatch) error {
	switch {
	case w.UserID == 0:
		return errUserRequired
	case strings.TrimSpace(w.ProductKey) == "" && strings.TrimSpace(w.Keyword) == "":
		return errTargetRequired
	case w.TargetPrice < 0:
		return errTargetPrice
	case w.DropPercent < 0 || w.DropPercent > 100:
		return errDropPercent
	case w.TargetPrice == 0 && w.DropPercent == 0:
		return errNoThreshold
	}
	return nil
}
