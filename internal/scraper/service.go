package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/messaging"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Result sources
const (
	SourceScraping = "scraping"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// GroceryResult is the outcome of a grocery search
type GroceryResult struct {
	Results []models.GroceryOffer
	Source  string
}

// FoodResult is the outcome of a food delivery search
type FoodResult struct {
	Results []models.Restaurant
	Source  string
}

type cachedGrocery struct {
	offers []models.GroceryOffer
}

type cachedFood struct {
	restaurants []models.Restaurant
}

// Service scrapes every enabled source concurrently and caches the merged results
type Service struct {
	config    *config.Config
	fetcher   PageFetcher
	publisher messaging.Publisher
	sites     []config.SiteConfig
	cache     *cache.Cache
	group     singleflight.Group
	now       func() time.Time
}

// NewScraperService creates a scraper service. publisher may be nil.
func NewScraperService(cfg *config.Config, fetcher PageFetcher, publisher messaging.Publisher) (*Service, error) {
	sites := DefaultSites()
	if cfg.Scraper.SitesFile != "" {
		overrides, err := config.LoadSiteConfigs(cfg.Scraper.SitesFile)
		if err != nil {
			return nil, err
		}
		sites = MergeSites(sites, overrides)
	}

	ttl := cfg.Scraper.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Service{
		config:    cfg,
		fetcher:   fetcher,
		publisher: publisher,
		sites:     sites,
		cache:     cache.New(ttl, 2*ttl),
		now:       time.Now,
	}, nil
}

// Sites returns every known site
func (s *Service) Sites() []config.SiteConfig {
	return s.sites
}

// GrocerySites returns the enabled grocery sites in scrape order
func (s *Service) GrocerySites() []config.SiteConfig {
	return SelectSites(s.sites, KindGrocery, s.config.Scraper.GrocerySources)
}

// FoodSites returns the enabled food delivery sites in scrape order
func (s *Service) FoodSites() []config.SiteConfig {
	return SelectSites(s.sites, KindFood, s.config.Scraper.FoodSources)
}

// FlushCache drops every cached result and reports how many were dropped
func (s *Service) FlushCache() int {
	n := s.cache.ItemCount()
	s.cache.Flush()
	return n
}

func (s *Service) concurrency() int {
	if n := s.config.Scraper.ConcurrentRequests; n > 0 {
		return n
	}
	return 1
}

// searchURL fills the site's search URL with the escaped query
func searchURL(site config.SiteConfig, query string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return strings.Replace(site.SearchURL, "%s", escaped, 1)
}

func groceryKey(query string) string {
	return "grocery_" + strings.ToLower(strings.TrimSpace(query))
}

func foodKey(food, city string) string {
	return "food_delivery_" + strings.ToLower(strings.TrimSpace(food)) + "_" + strings.ToLower(strings.TrimSpace(city))
}

// ScrapeGrocery searches every enabled grocery site for query
func (s *Service) ScrapeGrocery(ctx context.Context, query string) (GroceryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return GroceryResult{}, fmt.Errorf("query is required")
	}
	key := groceryKey(query)

	if cached, ok := s.cache.Get(key); ok {
		logrus.WithField("query", query).Info("Returning cached grocery results")
		return GroceryResult{Results: cached.(cachedGrocery).offers, Source: SourceCache}, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Callers share this scrape, so one caller leaving must not cancel it.
		ctx := context.WithoutCancel(ctx)

		offers := s.scrapeGrocerySites(ctx, query)
		source := SourceScraping
		if len(offers) == 0 {
			logrus.WithField("query", query).Warn("No results from scraping, using fallback data")
			offers = FallbackGroceries(query, s.now())
			source = SourceFallback
		} else {
			s.publishOffers(ctx, query, offers)
		}

		s.cache.Set(key, cachedGrocery{offers: offers}, cache.DefaultExpiration)
		return GroceryResult{Results: offers, Source: source}, nil
	})
	if err != nil {
		return GroceryResult{}, err
	}
	return v.(GroceryResult), nil
}

func (s *Service) scrapeGrocerySites(ctx context.Context, query string) []models.GroceryOffer {
	sites := s.GrocerySites()
	perSite := make([][]models.GroceryOffer, len(sites))

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			log := logrus.WithFields(logrus.Fields{"site": site.Name, "query": query})
			log.Info("Scraping site")

			html, err := s.fetcher.Fetch(ctx, FetchRequest{
				HomeURL:      site.HomeURL,
				URL:          searchURL(site, query),
				WaitSelector: site.WaitSelector,
			})
			if err != nil {
				log.WithError(err).Error("Error scraping site")
				return nil
			}
			offers, err := ParseGrocery(html, site, s.now())
			if err != nil {
				log.WithError(err).Error("Error parsing site")
				return nil
			}
			log.WithField("count", len(offers)).Info("Scraped site")
			perSite[i] = offers
			return nil
		})
	}
	_ = g.Wait()

	all := []models.GroceryOffer{}
	for _, offers := range perSite {
		all = append(all, offers...)
	}
	return all
}

func (s *Service) publishOffers(ctx context.Context, query string, offers []models.GroceryOffer) {
	if s.publisher == nil || !s.config.Scraper.PublishOffers {
		return
	}

	scrapeID := uuid.NewString()
	scrapedAt := s.now().UTC()
	for _, offer := range offers {
		event := models.OfferEvent{
			ScrapeID:  scrapeID,
			Query:     query,
			Offer:     offer,
			ScrapedAt: scrapedAt,
		}
		if err := s.publisher.PublishMessage(ctx, s.config.Kafka.OfferTopic, offer.Platform+":"+offer.Name, event); err != nil {
			logrus.WithError(err).WithField("offer", offer.Name).Error("Error publishing offer")
		}
	}
}

// ScrapeFoodDelivery searches every enabled food delivery site for food in city.
// Distances are computed against user when it is set.
func (s *Service) ScrapeFoodDelivery(ctx context.Context, food, city string, user *Point) (FoodResult, error) {
	food, city = strings.TrimSpace(food), strings.TrimSpace(city)
	if food == "" || city == "" {
		return FoodResult{}, fmt.Errorf("food and city are required")
	}
	key := foodKey(food, city)

	if cached, ok := s.cache.Get(key); ok {
		logrus.WithFields(logrus.Fields{"food": food, "city": city}).Info("Returning cached restaurant results")
		return FoodResult{Results: WithDistances(cached.(cachedFood).restaurants, user), Source: SourceCache}, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)

		restaurants := s.scrapeFoodSites(ctx, food, city)
		source := SourceScraping
		if len(restaurants) == 0 {
			logrus.WithFields(logrus.Fields{"food": food, "city": city}).Warn("No results from scraping, using fallback data")
			restaurants = FallbackRestaurants(food, city)
			source = SourceFallback
		}

		s.cache.Set(key, cachedFood{restaurants: restaurants}, cache.DefaultExpiration)
		return FoodResult{Results: restaurants, Source: source}, nil
	})
	if err != nil {
		return FoodResult{}, err
	}

	result := v.(FoodResult)
	result.Results = WithDistances(result.Results, user)
	return result, nil
}

func (s *Service) scrapeFoodSites(ctx context.Context, food, city string) []models.Restaurant {
	sites := s.FoodSites()
	perSite := make([][]models.Restaurant, len(sites))

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			log := logrus.WithFields(logrus.Fields{"site": site.Name, "food": food, "city": city})
			log.Info("Scraping site")

			html, err := s.fetcher.Fetch(ctx, FetchRequest{
				HomeURL:            site.HomeURL,
				URL:                searchURL(site, food),
				WaitSelector:       site.WaitSelector,
				Location:           city,
				LocationInput:      site.LocationInput,
				LocationSuggestion: site.LocationSuggestion,
			})
			if err != nil {
				log.WithError(err).Error("Error scraping site")
				return nil
			}
			restaurants, err := ParseRestaurants(html, site, food, city, nil)
			if err != nil {
				log.WithError(err).Error("Error parsing site")
				return nil
			}
			log.WithField("count", len(restaurants)).Info("Scraped site")
			perSite[i] = restaurants
			return nil
		})
	}
	_ = g.Wait()

	all := []models.Restaurant{}
	for _, restaurants := range perSite {
		all = append(all, restaurants...)
	}
	return all
}
