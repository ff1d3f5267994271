package notification

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/models"
)

type memStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func (s *memStore) Save(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uint(len(s.items) + 1)
	s.items = append(s.items, *n)
	return nil
}

func (s *memStore) List(_ context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveredAt.After(out[j].DeliveredAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []models.Notification{}, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *memStore) CountUnread(_ context.Context, userID uint) (int64, error) {
	_, total, _ := s.List(context.Background(), userID, true, 1<<30, 0)
	return total, nil
}

func (s *memStore) MarkRead(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *memStore) MarkAllRead(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].UserID == userID {
			s.items[i].IsRead = true
		}
	}
	return nil
}

func (s *memStore) DeleteBefore(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	var n int64
	for _, item := range s.items {
		if item.DeliveredAt.Before(t) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return n, nil
}

func newTestService(store Store, now time.Time) *Service {
	svc := NewNotificationService(store, nil, &config.Config{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestFormatAlert(t *testing.T) {
	drop := models.AlertEvent{ProductName: "Amul Butter 100g", Platform: "Zepto", PreviousPrice: 60, NewPrice: 54}
	if got, want := FormatAlert(drop), "Price drop alert: Amul Butter 100g on Zepto is now ₹54.00 (was ₹60.00)"; got != want {
		t.Errorf("FormatAlert() = %q, want %q", got, want)
	}

	target := drop
	target.TargetPrice = 55
	if got := FormatAlert(target); !strings.Contains(got, "reached your target ₹55.00") {
		t.Errorf("FormatAlert() = %q, want target wording", got)
	}

	target.NewPrice = 58
	if got := FormatAlert(target); strings.Contains(got, "target") {
		t.Errorf("FormatAlert() = %q, target not reached", got)
	}
}

func TestHandleAlertStoresAndDelivers(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := &memStore{}
	svc := newTestService(store, now)
	ch := svc.RegisterUserChannel(3)

	alert := models.AlertEvent{UserID: 3, WatchID: 11, ProductKey: "zepto:eggs", ProductName: "Eggs", Platform: "Zepto", PreviousPrice: 80, NewPrice: 70, ProductURL: "https://zepto.com/eggs"}
	if err := svc.HandleAlert(context.Background(), alert); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}

	if len(store.items) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(store.items))
	}
	stored := store.items[0]
	if stored.WatchID != 11 || stored.URL != "https://zepto.com/eggs" || !stored.DeliveredAt.Equal(now) {
		t.Errorf("stored = %+v", stored)
	}

	select {
	case msg := <-ch:
		if msg != stored.Message {
			t.Errorf("delivered %q, stored %q", msg, stored.Message)
		}
	default:
		t.Fatal("nothing delivered to the user channel")
	}
}

func TestDeliverDoesNotBlockWhenFull(t *testing.T) {
	svc := newTestService(&memStore{}, time.Now())
	svc.RegisterUserChannel(1)

	for i := 0; i < channelBuffer; i++ {
		if !svc.deliver(1, "msg") {
			t.Fatalf("delivery %d failed before buffer was full", i)
		}
	}
	if svc.deliver(1, "overflow") {
		t.Error("delivery to a full channel reported success")
	}
	if svc.deliver(2, "nobody listening") {
		t.Error("delivery without a channel reported success")
	}
}

func TestRegisterReplacesChannel(t *testing.T) {
	svc := newTestService(&memStore{}, time.Now())
	first := svc.RegisterUserChannel(5)
	second := svc.RegisterUserChannel(5)

	if _, ok := <-first; ok {
		t.Error("replaced channel should be closed")
	}

	svc.UnregisterUserChannel(5, first)
	if !svc.deliver(5, "still connected") {
		t.Error("stale unregister removed the current channel")
	}

	svc.UnregisterUserChannel(5, second)
	if _, ok := <-second; !ok {
		t.Error("buffered message lost on unregister")
	}
	if _, ok := <-second; ok {
		t.Error("unregistered channel should be closed")
	}
}

func TestCleanupOldNotifications(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := &memStore{items: []models.Notification{
		{UserID: 1, DeliveredAt: now.AddDate(0, 0, -40)},
		{UserID: 1, DeliveredAt: now.AddDate(0, 0, -5)},
	}}
	svc := newTestService(store, now)

	if n := svc.cleanupOldNotifications(context.Background()); n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if len(store.items) != 1 {
		t.Errorf("remaining = %d, want 1", len(store.items))
	}
}
