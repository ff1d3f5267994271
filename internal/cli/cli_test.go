package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/safebite/platform/internal/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	name string
	docs []interface{}
}

func (c *fakeCollection) Name() string { return c.name }

func (c *fakeCollection) CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error) {
	return int64(len(c.docs)), nil
}

func (c *fakeCollection) DeleteMany(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	n := len(c.docs)
	c.docs = nil
	return &mongo.DeleteResult{DeletedCount: int64(n)}, nil
}

func (c *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	c.docs = append(c.docs, docs...)
	ids := make([]interface{}, len(docs))
	for i := range ids {
		ids[i] = i
	}
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

func TestSeedEmptyCollection(t *testing.T) {
	coll := &fakeCollection{name: "products"}
	var out bytes.Buffer

	n, err := seed(context.Background(), &out, coll, sampleProducts, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != len(sampleProducts) || len(coll.docs) != len(sampleProducts) {
		t.Errorf("inserted %d (collection has %d), want %d", n, len(coll.docs), len(sampleProducts))
	}
}

func TestSeedSkipsPopulatedCollection(t *testing.T) {
	coll := &fakeCollection{name: "Grocery Products", docs: []interface{}{bson.M{"product": "Existing"}}}
	var out bytes.Buffer

	n, err := seed(context.Background(), &out, coll, sampleGrocery, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 0 || len(coll.docs) != 1 {
		t.Errorf("populated collection was modified: inserted %d, has %d", n, len(coll.docs))
	}
	if !strings.Contains(out.String(), "skipping") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSeedForceReplaces(t *testing.T) {
	coll := &fakeCollection{name: "Grocery Products", docs: []interface{}{bson.M{"product": "Existing"}}}
	var out bytes.Buffer

	if _, err := seed(context.Background(), &out, coll, sampleGrocery, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(coll.docs) != len(sampleGrocery) {
		t.Errorf("collection has %d docs, want %d", len(coll.docs), len(sampleGrocery))
	}
}

type stubStore struct {
	catalog.Store
	docs []catalog.Document
}

func (s stubStore) Search(context.Context, catalog.Collection, string, int) ([]catalog.Document, catalog.SearchMethod, error) {
	return s.docs, catalog.MethodRegex, nil
}

func TestRunSearchPrintsTable(t *testing.T) {
	store := stubStore{docs: []catalog.Document{
		{"_id": "g1", "product": "Amul Taaza Toned Milk", "brand": "Amul", "category": "dairy"},
		{"_id": "g2", "product": "Almond Milk", "category": "beverages"},
	}}
	var out bytes.Buffer

	if err := runSearch(context.Background(), &out, store, catalog.Grocery, "milk", 5); err != nil {
		t.Fatalf("runSearch: %v", err)
	}
	got := out.String()
	for _, want := range []string{`2 result(s) for "milk" in grocery via regex`, "NAME", "Amul Taaza Toned Milk", "Almond Milk", "-"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestCommandArgs(t *testing.T) {
	tests := [][]string{
		{"scrape", "grocery"},
		{"scrape", "food", "biryani"},
		{"search"},
		{"migrate", "extra"},
	}
	for _, args := range tests {
		root := NewRootCmd()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		if err := root.Execute(); err == nil {
			t.Errorf("%v: expected argument error", args)
		}
	}
}

func TestSearchRejectsUnknownCollection(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"search", "milk", "--collection", "recipes"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown collection") {
		t.Errorf("err = %v", err)
	}
}
