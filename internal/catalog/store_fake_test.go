package catalog

import (
	"context"
	"strings"
	"sync"
)

type searchCall struct {
	coll  Collection
	text  string
	limit int
}

// fakeStore keeps documents in memory and records search calls
type fakeStore struct {
	mu      sync.Mutex
	docs    map[Collection][]Document
	err     error
	pingErr error
	calls   []searchCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[Collection][]Document{}}
}

func (f *fakeStore) add(coll Collection, docs ...Document) {
	f.docs[coll] = append(f.docs[coll], docs...)
}

func (f *fakeStore) List(_ context.Context, coll Collection, q ListQuery) (Page, error) {
	if f.err != nil {
		return Page{}, f.err
	}
	return pageOf(filterCategory(f.docs[coll], q.Category), q.Page, q.Limit), nil
}

func (f *fakeStore) Search(_ context.Context, coll Collection, text string, limit int) ([]Document, SearchMethod, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{coll, text, limit})
	f.mu.Unlock()
	if f.err != nil {
		return nil, "", f.err
	}

	out := []Document{}
	needle := strings.ToLower(text)
	for _, doc := range f.docs[coll] {
		for _, field := range SearchFields(coll) {
			if v, ok := doc[field].(string); ok && strings.Contains(strings.ToLower(v), needle) {
				out = append(out, Normalize(coll, doc))
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, MethodRegex, nil
}

func (f *fakeStore) FindByID(_ context.Context, coll Collection, id string) (Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, doc := range f.docs[coll] {
		if doc["_id"] == id {
			return Normalize(coll, doc), nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Count(_ context.Context, coll Collection) (int64, error) {
	return int64(len(f.docs[coll])), nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}
