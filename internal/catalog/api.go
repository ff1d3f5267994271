package catalog

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
	"github.com/sirupsen/logrus"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
	maxPage      = 10000

	// searchWindow caps how many documents a paged text listing pulls into memory
	searchWindow = 1000
	version      = "1.0.0"
)

// API represents the API server for the catalog service
type API struct {
	echo   *echo.Echo
	store  Store
	config *config.Config
}

// NewAPI creates a new API server
func NewAPI(store Store, config *config.Config) *API {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(logging.RequestLogger("catalog"))
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

// registerRoutes registers API routes, including the legacy aliases clients still call
func (api *API) registerRoutes() {
	for _, path := range []string{"/", "/api", "/status"} {
		api.echo.GET(path, api.status)
	}
	api.echo.GET("/health", api.healthCheck)

	for _, path := range []string{"/products", "/api/products", "/dataset/products"} {
		api.echo.GET(path, api.listHandler(Products))
	}
	for _, path := range []string{"/grocery-products", "/grocery", "/api/grocery", "/api/grocery-products",
		"/api/groceryProducts", "/dataset/grocery", "/dataset/groceryProducts"} {
		api.echo.GET(path, api.listHandler(Grocery))
		api.echo.GET(path+"/search", api.searchIn(Grocery))
		api.echo.GET(path+"/:id", api.getGroceryByID)
	}

	for _, path := range []string{"/search", "/api/search", "/api/dataset/search"} {
		api.echo.GET(path, api.search)
	}

	for _, path := range []string{"/product/:id", "/api/product/:id", "/api/products/:id", "/dataset/products/:id"} {
		api.echo.GET(path, api.getProductByID)
	}
}

// Start starts the API server
func (api *API) Start(ctx context.Context) error {
	go func() {
		address := ":" + strconv.Itoa(api.config.Server.Port)
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
		"service": "catalog",
	})
}

// status reports connectivity and collection sizes
func (api *API) status(c echo.Context) error {
	ctx := c.Request().Context()

	connected := api.store.Ping(ctx) == nil
	counts := map[string]int64{}
	if connected {
		for _, coll := range []Collection{Products, Grocery} {
			n, err := api.store.Count(ctx, coll)
			if err != nil {
				logrus.WithError(err).WithField("collection", coll).Warn("Failed to count collection")
				continue
			}
			counts[string(coll)] = n
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":            "running",
		"version":           version,
		"mongodb_connected": connected,
		"collections":       counts,
		"endpoints": []string{
			"/products", "/grocery-products", "/search", "/product/:id", "/grocery-products/:id", "/health",
		},
	})
}

// listHandler pages through a collection, optionally filtered by text and category
func (api *API) listHandler(coll Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		page, limit := pagination(c)
		text := strings.TrimSpace(firstParam(c, "q", "search"))
		category := c.QueryParam("category")

		var result Page
		method := MethodList
		if text == "" {
			var err error
			result, err = api.store.List(ctx, coll, ListQuery{Category: category, Page: page, Limit: limit})
			if err != nil {
				return databaseError(c, err)
			}
		} else {
			docs, m, err := api.store.Search(ctx, coll, text, min(page*limit, searchWindow))
			if err != nil {
				return databaseError(c, err)
			}
			method = m
			result = pageOf(filterCategory(docs, category), page, limit)
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"products":   result.Items,
			"results":    result.Items,
			"total":      result.Total,
			"count":      len(result.Items),
			"page":       result.Page,
			"limit":      result.Limit,
			"totalPages": result.TotalPages,
			"collection": string(coll),
			"method":     string(method),
		})
	}
}

type searchStep struct {
	coll  Collection
	limit int
}

// search queries one or both collections. With both, products fill the
// first half of the limit and grocery the rest.
func (api *API) search(c echo.Context) error {
	_, limit := pagination(c)

	switch collection := strings.ToLower(c.QueryParam("collection")); collection {
	case "", "all":
		return api.runSearch(c, []searchStep{{Products, limit / 2}, {Grocery, limit - limit/2}})
	default:
		coll, ok := ParseCollection(collection)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "collection must be one of all, products, grocery",
			})
		}
		return api.runSearch(c, []searchStep{{coll, limit}})
	}
}

// searchIn serves <collection>/search routes, which ignore the collection parameter
func (api *API) searchIn(coll Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, limit := pagination(c)
		return api.runSearch(c, []searchStep{{coll, limit}})
	}
}

func (api *API) runSearch(c echo.Context, plan []searchStep) error {
	ctx := c.Request().Context()

	text := strings.TrimSpace(firstParam(c, "query", "q"))
	if text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Query parameter (query or q) is required",
		})
	}

	results := []Document{}
	for _, step := range plan {
		if step.limit <= 0 {
			continue
		}
		docs, _, err := api.store.Search(ctx, step.coll, text, step.limit)
		if err != nil {
			return databaseError(c, err)
		}
		results = append(results, docs...)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"items":   results,
		"count":   len(results),
		"query":   text,
	})
}

// getProductByID checks products first, then grocery
func (api *API) getProductByID(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	for _, coll := range []Collection{Products, Grocery} {
		doc, err := api.store.FindByID(ctx, coll, id)
		if err == nil {
			return c.JSON(http.StatusOK, doc)
		}
		if !errors.Is(err, ErrNotFound) {
			return databaseError(c, err)
		}
	}
	return notFound(c)
}

func (api *API) getGroceryByID(c echo.Context) error {
	doc, err := api.store.FindByID(c.Request().Context(), Grocery, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		return databaseError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": "Product not found"})
}

func databaseError(c echo.Context, err error) error {
	logrus.WithError(err).WithField("path", c.Path()).Error("Database error")
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error":   "Database error",
		"details": err.Error(),
	})
}

// pagination reads page and limit, falling back to defaults on bad input
func pagination(c echo.Context) (int, int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page <= 0 || page > maxPage {
		page = defaultPage
	}

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	return page, limit
}

func firstParam(c echo.Context, names ...string) string {
	for _, name := range names {
		if v := c.QueryParam(name); v != "" {
			return v
		}
	}
	return ""
}

func filterCategory(docs []Document, category string) []Document {
	category = strings.ToLower(categoryFilter(category))
	if category == "" {
		return docs
	}
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if value, ok := doc["category"].(string); ok && strings.Contains(strings.ToLower(value), category) {
			out = append(out, doc)
		}
	}
	return out
}

// pageOf slices an in-memory result set into one page
func pageOf(docs []Document, page, limit int) Page {
	total := int64(len(docs))
	start := (page - 1) * limit
	if start < 0 {
		start = 0
	}
	if start > len(docs) {
		start = len(docs)
	}
	end := start + limit
	if end > len(docs) {
		end = len(docs)
	}
	items := docs[start:end]
	if items == nil {
		items = []Document{}
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}
}
