package catalog

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var searchFields = map[Collection][]string{
	Grocery:  {"product", "brand", "category", "sub_category"},
	Products: {"name", "description", "category", "recipe_name", "food_name"},
}

// SearchFields lists the fields matched by the regex fallback
func SearchFields(coll Collection) []string {
	return searchFields[coll]
}

func containsRegex(text string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
}

// RegexFilter matches documents where any field contains text, ignoring case.
// The text is matched literally.
func RegexFilter(fields []string, text string) bson.M {
	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.M{field: containsRegex(text)})
	}
	return bson.M{"$or": or}
}

// ListFilter combines the optional search and category filters of a list query
func ListFilter(coll Collection, q ListQuery) bson.M {
	var clauses bson.A
	if text := strings.TrimSpace(q.Search); text != "" {
		clauses = append(clauses, RegexFilter(SearchFields(coll), text))
	}
	if category := categoryFilter(q.Category); category != "" {
		clauses = append(clauses, bson.M{"category": containsRegex(category)})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0].(bson.M)
	default:
		return bson.M{"$and": clauses}
	}
}

func categoryFilter(category string) string {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		return ""
	}
	return category
}

// AtlasPipeline builds a fuzzy full-text $search over every field
func AtlasPipeline(index, text string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.M{
			"index": index,
			"text": bson.M{
				"query": text,
				"path":  bson.M{"wildcard": "*"},
				"fuzzy": bson.M{"maxEdits": 2},
			},
		}}},
		{{Key: "$limit", Value: limit}},
	}
}
