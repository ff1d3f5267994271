package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/models"
)

func seededAPI() (*API, *Service, *memStore) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{}
	for i, read := range []bool{false, true, false} {
		_ = store.Save(context.Background(), &models.Notification{
			UserID:      9,
			Message:     "alert",
			IsRead:      read,
			DeliveredAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	svc := newTestService(store, base)
	return NewAPI(&config.Config{}, svc), svc, store
}

func call(t *testing.T, api *API, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, out
}

func TestGetNotifications(t *testing.T) {
	api, _, _ := seededAPI()

	rec, body := call(t, api, http.MethodGet, "/api/v1/notifications?user_id=9&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["total"] != float64(3) || body["page"] != float64(1) || body["limit"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	if n := len(body["notifications"].([]interface{})); n != 2 {
		t.Errorf("got %d notifications, want 2", n)
	}

	rec, body = call(t, api, http.MethodGet, "/api/v1/notifications/unread?user_id=9", "")
	if rec.Code != http.StatusOK || body["total"] != float64(2) {
		t.Errorf("unread: status %d body %v", rec.Code, body)
	}

	for _, target := range []string{"/api/v1/notifications", "/api/v1/notifications?user_id=x"} {
		if rec, _ := call(t, api, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestMarkRead(t *testing.T) {
	api, _, store := seededAPI()

	if rec, _ := call(t, api, http.MethodPut, "/api/v1/notifications/1/read", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !store.items[0].IsRead {
		t.Error("notification 1 not marked read")
	}
	if rec, _ := call(t, api, http.MethodPut, "/api/v1/notifications/99/read", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", rec.Code)
	}

	if rec, _ := call(t, api, http.MethodPut, "/api/v1/notifications/read-all", `{"user_id": 9}`); rec.Code != http.StatusOK {
		t.Fatalf("read-all status = %d", rec.Code)
	}
	if n, _ := store.CountUnread(context.Background(), 9); n != 0 {
		t.Errorf("unread after read-all = %d", n)
	}
	if rec, _ := call(t, api, http.MethodPut, "/api/v1/notifications/read-all", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("read-all without user status = %d, want 400", rec.Code)
	}
}

func TestWebSocketDelivery(t *testing.T) {
	api, svc, _ := seededAPI()
	server := httptest.NewServer(api)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/notifications/ws/9"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var init map[string]interface{}
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init["type"] != "init" || init["unread_count"] != float64(2) {
		t.Errorf("init = %v", init)
	}

	alert := models.AlertEvent{UserID: 9, ProductName: "Ghee 1L", Platform: "JioMart", PreviousPrice: 650, NewPrice: 599}
	if err := svc.HandleAlert(context.Background(), alert); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}

	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if msg["type"] != "notification" || msg["message"] != FormatAlert(alert) {
		t.Errorf("message = %v", msg)
	}
}
