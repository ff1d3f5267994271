package models

import (
	"strings"
	"time"
)

// GroceryOffer is a grocery product listing scraped from a quick-commerce platform
type GroceryOffer struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	SalePrice       float64  `json:"sale_price"`
	MarketPrice     float64  `json:"market_price"`
	DiscountPercent int      `json:"discount_percent"`
	ImageURL        string   `json:"image_url"`
	Source          string   `json:"source"`
	Platform        string   `json:"platform"`
	Redirect        string   `json:"redirect"`
	Offers          []string `json:"offers"`
	InStock         bool     `json:"in_stock"`
	Weight          string   `json:"weight"`
	Rating          float64  `json:"rating"`
}

// ProductKey identifies the same listing across scrapes
func (o GroceryOffer) ProductKey() string {
	return ProductKey(o.Platform, o.Name)
}

// ProductKey builds the lowercased "platform:name" key used for price history
func ProductKey(platform, name string) string {
	return strings.ToLower(strings.TrimSpace(platform) + ":" + strings.TrimSpace(name))
}

// Restaurant is a food-delivery listing scraped from a delivery platform
type Restaurant struct {
	Name          string   `json:"restaurant"`
	Redirect      string   `json:"redirect"`
	Rating        float64  `json:"rating"`
	DeliveryTime  string   `json:"delivery_time"`
	PriceRange    string   `json:"price_range"`
	Cuisine       string   `json:"cuisine"`
	Address       string   `json:"address"`
	ImageURL      string   `json:"image_url"`
	Platform      string   `json:"platform"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	DistanceKm    *float64 `json:"distance_km"`
	PopularDishes []string `json:"popular_dishes"`
	Offers        []string `json:"offers"`
}

// OfferEvent is published for every freshly scraped grocery offer
type OfferEvent struct {
	ScrapeID  string       `json:"scrape_id"`
	Query     string       `json:"query"`
	Offer     GroceryOffer `json:"offer"`
	ScrapedAt time.Time    `json:"scraped_at"`
}

// AlertEvent is published when a price watch fires
type AlertEvent struct {
	UserID        uint    `json:"user_id"`
	WatchID       uint    `json:"watch_id"`
	Platform      string  `json:"platform"`
	ProductKey    string  `json:"product_key"`
	ProductName   string  `json:"product_name"`
	ProductURL    string  `json:"product_url"`
	PreviousPrice float64 `json:"previous_price"`
	NewPrice      float64 `json:"new_price"`
	TargetPrice   float64 `json:"target_price"`
	ChangePercent float64 `json:"change_percent"`
}
