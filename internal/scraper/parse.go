package scraper

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
)

var errEmptyCard = errors.New("card has no name or price")

// findCards returns the cards of the first selector that matches, capped at max
func findCards(doc *goquery.Document, selectors []string, max int) *goquery.Selection {
	cards := doc.Selection.Slice(0, 0)
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if max > 0 && cards.Length() > max {
		cards = cards.Slice(0, max)
	}
	return cards
}

func text(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(card.Find(selector).First().Text())
}

func attr(card *goquery.Selection, selector, name string) string {
	if selector == "" {
		return ""
	}
	v, _ := card.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}

// ParseGrocery extracts grocery offers from a search results page
func ParseGrocery(html string, site config.SiteConfig, now time.Time) ([]models.GroceryOffer, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards := findCards(doc, site.CardSelectors, site.MaxItems)
	log := logrus.WithField("site", site.Name)
	log.WithField("cards", cards.Length()).Debug("Found product cards")

	offers := []models.GroceryOffer{}
	cards.Each(func(_ int, card *goquery.Selection) {
		offer, err := parseGroceryCard(card, site)
		if err != nil {
			log.WithError(err).Debug("Skipping product card")
			return
		}
		offer.ID = fmt.Sprintf("%s_%d_%d", site.Name, now.Unix(), len(offers))
		offers = append(offers, offer)
	})
	return offers, nil
}

func parseGroceryCard(card *goquery.Selection, site config.SiteConfig) (models.GroceryOffer, error) {
	sel := site.Selectors

	name := text(card, sel.Name)
	priceText := text(card, sel.Price)
	if name == "" && priceText == "" {
		return models.GroceryOffer{}, errEmptyCard
	}
	if name == "" {
		name = "Unknown Product"
	}

	price := CleanPrice(priceText)
	marketPrice := price
	if original := text(card, sel.OriginalPrice); original != "" {
		if p := CleanPrice(original); p > 0 {
			marketPrice = p
		}
	}

	weight := text(card, sel.Weight)
	if weight == "" {
		weight = ExtractWeight(name)
	}

	var offers []string
	if offer := text(card, sel.Offer); offer != "" {
		offers = append(offers, offer)
	}

	brand := text(card, sel.Brand)
	if brand == "" && strings.Contains(name, " ") {
		brand = strings.Fields(name)[0]
	}

	category := text(card, sel.Category)
	if category == "" {
		category = "Grocery"
	}

	discount := ExtractDiscountPercentage(strings.Join(offers, " "))
	if discount == 0 && marketPrice > price && price > 0 {
		discount = int(math.Round((marketPrice - price) / marketPrice * 100))
	}

	return models.GroceryOffer{
		Name:            name,
		Brand:           brand,
		Category:        category,
		Description:     strings.TrimSpace(name + " " + weight),
		Price:           price,
		SalePrice:       price,
		MarketPrice:     marketPrice,
		DiscountPercent: discount,
		ImageURL:        attr(card, sel.Image, "src"),
		Source:          sourceName(site),
		Platform:        site.Platform,
		Redirect:        absoluteURL(site.BaseURL, attr(card, sel.Link, "href")),
		Offers:          nonNil(offers),
		InStock:         true,
		Weight:          weight,
		Rating:          parseRating(text(card, sel.Rating), 0),
	}, nil
}

// ParseRestaurants extracts restaurants from a food delivery search page.
// Distances are filled in only when user is set and the card exposes coordinates.
func ParseRestaurants(html string, site config.SiteConfig, food, city string, user *Point) ([]models.Restaurant, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards := findCards(doc, site.CardSelectors, site.MaxItems)
	log := logrus.WithField("site", site.Name)
	log.WithField("cards", cards.Length()).Debug("Found restaurant cards")

	restaurants := []models.Restaurant{}
	cards.Each(func(_ int, card *goquery.Selection) {
		r, err := parseRestaurantCard(card, site, food, city)
		if err != nil {
			log.WithError(err).Debug("Skipping restaurant card")
			return
		}
		restaurants = append(restaurants, r)
	})
	return WithDistances(restaurants, user), nil
}

func parseRestaurantCard(card *goquery.Selection, site config.SiteConfig, food, city string) (models.Restaurant, error) {
	sel := site.Selectors

	name := text(card, sel.Name)
	if name == "" && card.Find(sel.Link).Length() == 0 {
		return models.Restaurant{}, errEmptyCard
	}
	if name == "" {
		name = "Unknown Restaurant"
	}

	deliveryTime := text(card, sel.DeliveryTime)
	if deliveryTime == "" {
		deliveryTime = "30-40 mins"
	}
	priceRange := text(card, sel.PriceRange)
	if priceRange == "" {
		priceRange = "₹300 for two"
	}
	cuisine := text(card, sel.Cuisine)
	if cuisine == "" {
		cuisine = "Various"
	}
	address := city
	if a := text(card, sel.Address); a != "" {
		address = a + ", " + city
	}
	image := attr(card, sel.Image, "src")
	if image == "" {
		image = "https://source.unsplash.com/random/300x300/?restaurant," + url.QueryEscape(food)
	}

	r := models.Restaurant{
		Name:          name,
		Redirect:      absoluteURL(site.BaseURL, attr(card, sel.Link, "href")),
		Rating:        parseRating(text(card, sel.Rating), 4.0),
		DeliveryTime:  deliveryTime,
		PriceRange:    priceRange,
		Cuisine:       cuisine,
		Address:       address,
		ImageURL:      image,
		Platform:      site.Platform,
		PopularDishes: PopularDishes(food),
		Offers:        nonNil(append([]string(nil), site.Offers...)),
	}

	if sel.LatitudeAttr != "" && sel.LongitudeAttr != "" {
		lat, errLat := strconv.ParseFloat(card.AttrOr(sel.LatitudeAttr, ""), 64)
		lon, errLon := strconv.ParseFloat(card.AttrOr(sel.LongitudeAttr, ""), 64)
		if errLat == nil && errLon == nil {
			r.Latitude, r.Longitude = &lat, &lon
		}
	}
	return r, nil
}

// WithDistances returns copies of restaurants with distance_km set from user.
// Without a user location the distances are cleared.
func WithDistances(restaurants []models.Restaurant, user *Point) []models.Restaurant {
	out := make([]models.Restaurant, len(restaurants))
	for i, r := range restaurants {
		r.DistanceKm = nil
		if user != nil && r.Latitude != nil && r.Longitude != nil {
			d := Haversine(user.Lat, user.Lon, *r.Latitude, *r.Longitude)
			r.DistanceKm = &d
		}
		out[i] = r
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
