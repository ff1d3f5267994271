package pricewatch

import (
	"math"
	"testing"
	"time"

	"github.com/safebite/platform/internal/common/models"
)

func TestCalculatePercentageChange(t *testing.T) {
	tests := []struct {
		old, new, want float64
	}{
		{100, 80, -20},
		{50, 75, 50},
		{0, 10, 0},
		{40, 40, 0},
	}
	for _, tt := range tests {
		got := calculatePercentageChange(tt.old, tt.new)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("calculatePercentageChange(%v, %v) = %v, want %v", tt.old, tt.new, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	key := models.ProductKey("Blinkit", "Amul Milk 500ml")

	tests := []struct {
		name  string
		watch models.PriceWatch
		want  bool
	}{
		{"exact key", models.PriceWatch{ProductKey: "blinkit:amul milk 500ml", IsActive: true}, true},
		{"key case-insensitive", models.PriceWatch{ProductKey: "BLINKIT:Amul Milk 500ml", IsActive: true}, true},
		{"other key", models.PriceWatch{ProductKey: "zepto:amul milk 500ml", IsActive: true}, false},
		{"keyword any platform", models.PriceWatch{Keyword: "milk", IsActive: true}, true},
		{"keyword same platform", models.PriceWatch{Keyword: "AMUL", Platform: "blinkit", IsActive: true}, true},
		{"keyword other platform", models.PriceWatch{Keyword: "milk", Platform: "Zepto", IsActive: true}, false},
		{"keyword miss", models.PriceWatch{Keyword: "bread", IsActive: true}, false},
		{"inactive", models.PriceWatch{Keyword: "milk"}, false},
		{"empty", models.PriceWatch{IsActive: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.watch, key, "Blinkit", "Amul Milk 500ml"); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldFire(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)
	old := now.Add(-48 * time.Hour)

	tests := []struct {
		name   string
		watch  models.PriceWatch
		price  float64
		change float64
		want   bool
	}{
		{"target reached", models.PriceWatch{TargetPrice: 50}, 45, 0, true},
		{"target equal", models.PriceWatch{TargetPrice: 50}, 50, 0, true},
		{"target above", models.PriceWatch{TargetPrice: 50}, 55, 0, false},
		{"zero price ignored", models.PriceWatch{TargetPrice: 50}, 0, 0, false},
		{"drop reached", models.PriceWatch{DropPercent: 10}, 90, -12, true},
		{"drop too small", models.PriceWatch{DropPercent: 10}, 95, -5, false},
		{"price rise", models.PriceWatch{DropPercent: 10}, 120, 20, false},
		{"cooldown", models.PriceWatch{TargetPrice: 50, LastNotifiedAt: &recent}, 45, 0, false},
		{"cooldown over", models.PriceWatch{TargetPrice: 50, LastNotifiedAt: &old}, 45, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldFire(tt.watch, tt.price, tt.change, now, 24*time.Hour); got != tt.want {
				t.Errorf("shouldFire() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateWatch(t *testing.T) {
	tests := []struct {
		name  string
		watch models.PriceWatch
		want  error
	}{
		{"valid target", models.PriceWatch{UserID: 1, Keyword: "milk", TargetPrice: 30}, nil},
		{"valid drop", models.PriceWatch{UserID: 1, ProductKey: "zepto:eggs", DropPercent: 15}, nil},
		{"no user", models.PriceWatch{Keyword: "milk", TargetPrice: 30}, errUserRequired},
		{"no product", models.PriceWatch{UserID: 1, TargetPrice: 30}, errTargetRequired},
		{"negative target", models.PriceWatch{UserID: 1, Keyword: "milk", TargetPrice: -1}, errTargetPrice},
		{"drop over 100", models.PriceWatch{UserID: 1, Keyword: "milk", DropPercent: 120}, errDropPercent},
		{"no threshold", models.PriceWatch{UserID: 1, Keyword: "milk"}, errNoThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateWatch(tt.watch); got != tt.want {
				t.Errorf("validateWatch() = %v, want %v", got, tt.want)
			}
		})
	}
}
