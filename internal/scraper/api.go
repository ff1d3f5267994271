package scraper

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/sirupsen/logrus"
)

// API represents the API server for the scraper service
type API struct {
	echo    *echo.Echo
	config  *config.Config
	service *Service
}

// NewAPI creates a new API server
func NewAPI(config *config.Config, service *Service) *API {
	e := echo.New()
	e.HideBanner = true

	e.Use(logging.RequestLogger("scraper"))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := &API{
		echo:    e,
		config:  config,
		service: service,
	}

	api.registerRoutes()

	return api
}

func (api *API) registerRoutes() {
	api.echo.GET("/health", api.healthCheck)

	api.echo.GET("/api/grocery/scrape", api.scrapeGrocery)
	api.echo.GET("/api/grocery/search", api.scrapeGrocery)
	api.echo.GET("/api/food-delivery/scrape", api.scrapeFoodDelivery)

	api.echo.GET("/api/scraper/sources", api.getSources)
	api.echo.DELETE("/api/scraper/cache", api.flushCache)
}

// Start starts the API server
func (api *API) Start(ctx context.Context) error {
	go func() {
		address := ":" + strconv.Itoa(api.config.Services.ScraperServicePort)
		if err := api.echo.Start(address); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("shutting down the server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.config.Server.IdleTimeout)
	defer cancel()

	return api.echo.Shutdown(shutdownCtx)
}

// ServeHTTP lets tests drive the router directly
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.echo.ServeHTTP(w, r)
}

func (api *API) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "scraper",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *API) scrapeGrocery(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Query parameter 'q' is required",
		})
	}

	result, err := api.service.ScrapeGrocery(c.Request().Context(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scrape grocery products")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": result.Results,
		"count":   len(result.Results),
		"query":   query,
		"source":  result.Source,
	})
}

func (api *API) scrapeFoodDelivery(c echo.Context) error {
	food := strings.TrimSpace(c.QueryParam("food"))
	city := strings.TrimSpace(c.QueryParam("city"))
	if food == "" || city == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Both food and city parameters are required",
		})
	}

	user, err := userLocation(c.QueryParam("lat"), c.QueryParam("lon"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "lat and lon must be valid coordinates",
		})
	}

	result, err := api.service.ScrapeFoodDelivery(c.Request().Context(), food, city, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scrape restaurants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": result.Results,
		"count":   len(result.Results),
		"query":   food,
		"city":    city,
		"source":  result.Source,
	})
}

// userLocation parses the optional lat/lon pair. Both must be present to be used.
func userLocation(latParam, lonParam string) (*Point, error) {
	if latParam == "" || lonParam == "" {
		return nil, nil
	}
	lat, err := parseCoordinate(latParam, 90)
	if err != nil {
		return nil, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := parseCoordinate(lonParam, 180)
	if err != nil {
		return nil, fmt.Errorf("invalid lon: %w", err)
	}
	return &Point{Lat: lat, Lon: lon}, nil
}

// parseCoordinate accepts finite values in [-bound, bound]
func parseCoordinate(s string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -bound || v > bound {
		return 0, fmt.Errorf("%q is outside [-%g, %g]", s, bound, bound)
	}
	return v, nil
}

func (api *API) getSources(c echo.Context) error {
	enabled := map[string]bool{}
	for _, site := range append(api.service.GrocerySites(), api.service.FoodSites()...) {
		enabled[site.Name] = true
	}

	sources := make([]map[string]interface{}, 0, len(api.service.Sites()))
	for _, site := range api.service.Sites() {
		sources = append(sources, map[string]interface{}{
			"name":      site.Name,
			"platform":  site.Platform,
			"kind":      site.Kind,
			"home_url":  site.HomeURL,
			"max_items": site.MaxItems,
			"enabled":   enabled[site.Name],
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"mode":    api.config.Scraper.Mode,
	})
}

func (api *API) flushCache(c echo.Context) error {
	n := api.service.FlushCache()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"flushed": n,
	})
}
