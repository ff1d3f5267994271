package notification

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/sirupsen/logrus"
)

const pingInterval = 30 * time.Second

// API represents the API server for the notification service
type API struct {
	echo     *echo.Echo
	config   *config.Config
	service  *Service
	upgrader websocket.Upgrader
}

// NewAPI creates a new API server
func NewAPI(config *config.Config, service *Service) *API {
	e := echo.New()
	e.HideBanner = true

	e.Use(logging.RequestLogger("notification"))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := &API{
		echo:    e,
		config:  config,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	api.registerRoutes()

	return api
}

func (api *API) registerRoutes() {
	api.echo.GET("/health", api.healthCheck)

	v1 := api.echo.Group("/api/v1/notifications")

	v1.GET("", api.getNotifications)
	v1.GET("/unread", api.getUnreadNotifications)
	v1.PUT("/:id/read", api.markAsRead)
	v1.PUT("/read-all", api.markAllAsRead)

	v1.GET("/ws/:user_id", api.handleWebSocket)
}

// Start starts the API server
func (api *API) Start(ctx context.Context) error {
	go func() {
		address := ":" + strconv.Itoa(api.config.Services.NotificationServicePort)
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
		"service": "notification",
	})
}

func parseUserID(raw string) (uint, error) {
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(userID), nil
}

func limitParam(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return limit
}

// getNotifications returns notifications with pagination
func (api *API) getNotifications(c echo.Context) error {
	userID, err := parseUserID(c.QueryParam("user_id"))
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit := limitParam(c)

	notifications, total, err := api.service.Notifications(c.Request().Context(), userID, false, limit, (page-1)*limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notifications")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// getUnreadNotifications returns unread notifications for a user
func (api *API) getUnreadNotifications(c echo.Context) error {
	userID, err := parseUserID(c.QueryParam("user_id"))
	if err != nil {
		return err
	}

	limit := limitParam(c)
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := api.service.Notifications(c.Request().Context(), userID, true, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch unread notifications")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (api *API) markAsRead(c echo.Context) error {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := api.service.MarkNotificationAsRead(c.Request().Context(), uint(notificationID)); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark notification as read")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Notification marked as read",
	})
}

func (api *API) markAllAsRead(c echo.Context) error {
	var request struct {
		UserID uint `json:"user_id"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if request.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}

	if err := api.service.MarkAllNotificationsAsRead(c.Request().Context(), request.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark all notifications as read")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All notifications marked as read",
	})
}

// handleWebSocket streams a user's notifications until the client disconnects
func (api *API) handleWebSocket(c echo.Context) error {
	userID, err := parseUserID(c.Param("user_id"))
	if err != nil {
		return err
	}

	ws, err := api.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "WebSocket upgrade error")
	}
	defer ws.Close()

	notificationCh := api.service.RegisterUserChannel(userID)
	defer api.service.UnregisterUserChannel(userID, notificationCh)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	unreadCount, err := api.service.UnreadCount(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to count unread notifications")
	}
	if err := ws.WriteJSON(map[string]interface{}{
		"type":         "init",
		"unread_count": unreadCount,
		"connected_at": time.Now(),
	}); err != nil {
		return nil
	}

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-notificationCh:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(map[string]interface{}{
				"type":    "notification",
				"message": msg,
				"time":    time.Now(),
			}); err != nil {
				return nil
			}
		case <-pingTicker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
				return nil
			}
		}
	}
}
