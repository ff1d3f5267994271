package pricewatch

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
)

// API represents the API server for the price watch service
type API struct {
	echo   *echo.Echo
	store  Store
	config *config.Config
}

// NewAPI creates a new API server
func NewAPI(store Store, config *config.Config) *API {
	e := echo.New()
	e.HideBanner = true

	e.Use(logging.RequestLogger("pricewatch"))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := &API{
		echo:   e,
		store:  store,
		config: config,
	}

	api.registerRoutes()

	return api
}

func (api *API) registerRoutes() {
	api.echo.GET("/health", api.healthCheck)

	v1 := api.echo.Group("/api/v1")

	v1.GET("/prices/history", api.getPriceHistory)

	v1.GET("/watches", api.getUserWatches)
	v1.POST("/watches", api.createWatch)
	v1.DELETE("/watches/:id", api.deleteWatch)
}

// Start starts the API server
func (api *API) Start(ctx context.Context) error {
	go func() {
		address := ":" + strconv.Itoa(api.config.Services.PriceWatchServicePort)
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
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "pricewatch",
	})
}

// getPriceHistory returns the most recent snapshots of one listing
func (api *API) getPriceHistory(c echo.Context) error {
	platform := strings.TrimSpace(c.QueryParam("platform"))
	name := strings.TrimSpace(c.QueryParam("name"))
	if platform == "" || name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "platform and name are required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	key := models.ProductKey(platform, name)
	history, err := api.store.History(c.Request().Context(), key, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch price history")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"product_key": key,
		"history":     history,
		"count":       len(history),
	})
}

func (api *API) getUserWatches(c echo.Context) error {
	userID, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32)
	if err != nil || userID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	watches, err := api.store.UserWatches(c.Request().Context(), uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch watches")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"watches": watches,
		"count":   len(watches),
	})
}

func (api *API) createWatch(c echo.Context) error {
	var request struct {
		UserID      uint    `json:"user_id"`
		Platform    string  `json:"platform"`
		ProductName string  `json:"product_name"`
		ProductKey  string  `json:"product_key"`
		Keyword     string  `json:"keyword"`
		TargetPrice float64 `json:"target_price"`
		DropPercent float64 `json:"drop_percent"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	key := strings.ToLower(strings.TrimSpace(request.ProductKey))
	if key == "" && request.Platform != "" && request.ProductName != "" {
		key = models.ProductKey(request.Platform, request.ProductName)
	}

	watch := models.PriceWatch{
		UserID:      request.UserID,
		Platform:    strings.TrimSpace(request.Platform),
		ProductKey:  key,
		Keyword:     strings.TrimSpace(request.Keyword),
		TargetPrice: request.TargetPrice,
		DropPercent: request.DropPercent,
		IsActive:    true,
	}
	if err := validateWatch(watch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := api.store.CreateWatch(c.Request().Context(), &watch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create watch")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Price watch created successfully",
		"watch":   watch,
	})
}

func (api *API) deleteWatch(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid watch ID")
	}

	if err := api.store.DeleteWatch(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, ErrWatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Price watch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete watch")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Price watch deleted successfully",
	})
}
