package pricewatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/safebite/platform/internal/common/models"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu        sync.Mutex
	snapshots []models.PriceSnapshot
	watches   map[uint]*models.PriceWatch
	nextID    uint
}

func newMemStore(watches ...models.PriceWatch) *memStore {
	s := &memStore{watches: map[uint]*models.PriceWatch{}}
	for i := range watches {
		w := watches[i]
		s.nextID++
		if w.ID == 0 {
			w.ID = s.nextID
		}
		s.watches[w.ID] = &w
	}
	return s
}

func (s *memStore) LatestSnapshot(_ context.Context, key string) (*models.PriceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.PriceSnapshot
	for i := range s.snapshots {
		snap := s.snapshots[i]
		if snap.ProductKey != key {
			continue
		}
		if latest == nil || !snap.ScrapedAt.Before(latest.ScrapedAt) {
			latest = &snap
		}
	}
	return latest, nil
}

func (s *memStore) SaveSnapshot(_ context.Context, snapshot *models.PriceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.ID = uint(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, *snapshot)
	return nil
}

func (s *memStore) History(_ context.Context, key string, limit int) ([]models.PriceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceSnapshot
	for _, snap := range s.snapshots {
		if snap.ProductKey == key {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScrapedAt.After(out[j].ScrapedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) DeleteSnapshotsBefore(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.snapshots[:0]
	var n int64
	for _, snap := range s.snapshots {
		if snap.ScrapedAt.Before(t) {
			n++
			continue
		}
		kept = append(kept, snap)
	}
	s.snapshots = kept
	return n, nil
}

func (s *memStore) ActiveWatches(context.Context) ([]models.PriceWatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceWatch
	for _, w := range s.watches {
		if w.IsActive {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UserWatches(_ context.Context, userID uint) ([]models.PriceWatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceWatch
	for _, w := range s.watches {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateWatch(_ context.Context, watch *models.PriceWatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	watch.ID = s.nextID
	w := *watch
	s.watches[w.ID] = &w
	return nil
}

func (s *memStore) DeleteWatch(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watches[id]; !ok {
		return ErrWatchNotFound
	}
	delete(s.watches, id)
	return nil
}

func (s *memStore) MarkNotified(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.watches[id]; ok {
		w.LastNotifiedAt = &at
	}
	return nil
}

func (s *memStore) watch(id uint) models.PriceWatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.watches[id]
}

