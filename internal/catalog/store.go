package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/db"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the logical name of a catalog collection
type Collection string

const (
	Products Collection = "products"
	Grocery  Collection = "grocery"
)

// ParseCollection maps a request value onto a collection
func ParseCollection(s string) (Collection, bool) {
	switch Collection(s) {
	case Products, Grocery:
		return Collection(s), true
	}
	return "", false
}

// Document is a schemaless catalog record
type Document = bson.M

// SearchMethod reports which strategy produced search results
type SearchMethod string

const (
	MethodAtlas SearchMethod = "atlas"
	MethodRegex SearchMethod = "regex"
	MethodList  SearchMethod = "list"
)

// ErrNotFound is returned when no document matches an id
var ErrNotFound = errors.New("product not found")

// ListQuery selects one page of a collection
type ListQuery struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Page is one page of documents
type Page struct {
	Items      []Document
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// Store reads the product catalog
type Store interface {
	List(ctx context.Context, coll Collection, q ListQuery) (Page, error)
	Search(ctx context.Context, coll Collection, text string, limit int) ([]Document, SearchMethod, error)
	FindByID(ctx context.Context, coll Collection, id string) (Document, error)
	Count(ctx context.Context, coll Collection) (int64, error)
	Ping(ctx context.Context) error
}

// MongoStore implements Store on top of MongoDB
type MongoStore struct {
	mongo       *db.MongoDB
	collections map[Collection]*mongo.Collection
	indexes     map[Collection]string
	mode        string
}

// NewMongoStore creates a store over the configured collections
func NewMongoStore(m *db.MongoDB, cfg *config.MongoConfig) *MongoStore {
	return &MongoStore{
		mongo: m,
		collections: map[Collection]*mongo.Collection{
			Products: m.Products,
			Grocery:  m.Grocery,
		},
		indexes: map[Collection]string{
			Products: cfg.ProductsSearchIndex,
			Grocery:  cfg.GrocerySearchIndex,
		},
		mode: cfg.SearchMode,
	}
}

func (s *MongoStore) collection(coll Collection) (*mongo.Collection, error) {
	c, ok := s.collections[coll]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}
	return c, nil
}

// List returns one page of documents matching the query filters
func (s *MongoStore) List(ctx context.Context, coll Collection, q ListQuery) (Page, error) {
	c, err := s.collection(coll)
	if err != nil {
		return Page{}, err
	}

	filter := ListFilter(coll, q)
	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("failed to count %s: %w", coll, err)
	}

	opts := options.Find().
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("failed to query %s: %w", coll, err)
	}
	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return Page{}, fmt.Errorf("failed to decode %s: %w", coll, err)
	}

	return Page{
		Items:      NormalizeAll(coll, docs),
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: TotalPages(total, q.Limit),
	}, nil
}

// Search runs Atlas Search when enabled and falls back to a regex query
// when Atlas fails or finds nothing.
func (s *MongoStore) Search(ctx context.Context, coll Collection, text string, limit int) ([]Document, SearchMethod, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, "", err
	}

	log := logrus.WithFields(logrus.Fields{"collection": coll, "query": text})

	if s.mode == "atlas" {
		docs, err := s.atlasSearch(ctx, c, s.indexes[coll], text, limit)
		switch {
		case err != nil:
			log.WithError(err).Warn("Atlas search failed, falling back to regex")
		case len(docs) == 0:
			log.Debug("Atlas search returned no results, falling back to regex")
		default:
			return NormalizeAll(coll, docs), MethodAtlas, nil
		}
	}

	cursor, err := c.Find(ctx, RegexFilter(SearchFields(coll), text), options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, MethodRegex, fmt.Errorf("regex search on %s failed: %w", coll, err)
	}
	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, MethodRegex, fmt.Errorf("failed to decode %s: %w", coll, err)
	}
	return NormalizeAll(coll, docs), MethodRegex, nil
}

func (s *MongoStore) atlasSearch(ctx context.Context, c *mongo.Collection, index, text string, limit int) ([]Document, error) {
	cursor, err := c.Aggregate(ctx, AtlasPipeline(index, text, limit))
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByID looks the id up as an ObjectId first and as a plain string second
func (s *MongoStore) FindByID(ctx context.Context, coll Collection, id string) (Document, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, err
	}

	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		doc, err := findOne(ctx, c, bson.M{"_id": oid})
		if err == nil {
			return Normalize(coll, doc), nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	doc, err := findOne(ctx, c, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return Normalize(coll, doc), nil
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M) (Document, error) {
	var doc Document
	if err := c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document in %s: %w", c.Name(), err)
	}
	return doc, nil
}

// Count returns the number of documents in a collection
func (s *MongoStore) Count(ctx context.Context, coll Collection) (int64, error) {
	c, err := s.collection(coll)
	if err != nil {
		return 0, err
	}
	return c.CountDocuments(ctx, bson.M{})
}

// Ping checks the MongoDB connection
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.mongo.Ping(ctx)
}

// TotalPages is the number of pages of size limit needed for total items
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
