package catalog

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize makes documents from both collections look alike: a string _id,
// a _collection tag and a name field.
func Normalize(coll Collection, doc Document) Document {
	if doc == nil {
		return nil
	}
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		doc["_id"] = oid.Hex()
	}
	doc["_collection"] = string(coll)

	if hasText(doc, "name") {
		return doc
	}
	switch coll {
	case Grocery:
		if hasText(doc, "product") {
			doc["name"] = doc["product"]
		}
	case Products:
		for _, field := range []string{"food_name", "recipe_name"} {
			if hasText(doc, field) {
				doc["name"] = doc[field]
				break
			}
		}
	}
	return doc
}

// NormalizeAll normalizes docs in place and never returns nil
func NormalizeAll(coll Collection, docs []Document) []Document {
	if docs == nil {
		return []Document{}
	}
	for i := range docs {
		docs[i] = Normalize(coll, docs[i])
	}
	return docs
}

func hasText(doc Document, field string) bool {
	s, ok := doc[field].(string)
	return ok && s != ""
}
