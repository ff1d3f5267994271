package catalog

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegexFilterQuotesText(t *testing.T) {
	got := RegexFilter([]string{"product", "brand"}, "a+b (1kg)")
	want := bson.M{"$or": bson.A{
		bson.M{"product": bson.M{"$regex": `a\+b \(1kg\)`, "$options": "i"}},
		bson.M{"brand": bson.M{"$regex": `a\+b \(1kg\)`, "$options": "i"}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RegexFilter = %v, want %v", got, want)
	}
}

func TestSearchFields(t *testing.T) {
	if got := SearchFields(Grocery); !reflect.DeepEqual(got, []string{"product", "brand", "category", "sub_category"}) {
		t.Errorf("grocery fields = %v", got)
	}
	if got := SearchFields(Products); !reflect.DeepEqual(got, []string{"name", "description", "category", "recipe_name", "food_name"}) {
		t.Errorf("products fields = %v", got)
	}
}

func TestListFilter(t *testing.T) {
	if got := ListFilter(Grocery, ListQuery{}); len(got) != 0 {
		t.Errorf("empty query filter = %v", got)
	}
	if got := ListFilter(Grocery, ListQuery{Category: "All"}); len(got) != 0 {
		t.Errorf("category all filter = %v", got)
	}

	got := ListFilter(Grocery, ListQuery{Category: "Dairy"})
	want := bson.M{"category": bson.M{"$regex": "Dairy", "$options": "i"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("category filter = %v", got)
	}

	got = ListFilter(Products, ListQuery{Search: "dal", Category: "Main"})
	and, ok := got["$and"].(bson.A)
	if !ok || len(and) != 2 {
		t.Fatalf("combined filter = %v, want $and of two clauses", got)
	}
}

func TestAtlasPipeline(t *testing.T) {
	pipeline := AtlasPipeline("default", "paneer", 7)
	if len(pipeline) != 2 {
		t.Fatalf("pipeline stages = %d, want 2", len(pipeline))
	}

	search := pipeline[0][0]
	if search.Key != "$search" {
		t.Fatalf("first stage = %s", search.Key)
	}
	stage := search.Value.(bson.M)
	text := stage["text"].(bson.M)
	if stage["index"] != "default" || text["query"] != "paneer" {
		t.Errorf("search stage = %v", stage)
	}
	if !reflect.DeepEqual(text["fuzzy"], bson.M{"maxEdits": 2}) {
		t.Errorf("fuzzy = %v", text["fuzzy"])
	}
	if pipeline[1][0].Key != "$limit" || pipeline[1][0].Value != 7 {
		t.Errorf("limit stage = %v", pipeline[1])
	}
}

func TestNormalize(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name     string
		coll     Collection
		doc      Document
		wantName interface{}
	}{
		{"grocery product becomes name", Grocery, Document{"_id": oid, "product": "Amul Butter"}, "Amul Butter"},
		{"existing name kept", Grocery, Document{"_id": oid, "name": "Butter", "product": "Amul Butter"}, "Butter"},
		{"food name", Products, Document{"_id": oid, "food_name": "Dal Makhani"}, "Dal Makhani"},
		{"recipe name", Products, Document{"_id": oid, "recipe_name": "Rajma"}, "Rajma"},
		{"no name source", Products, Document{"_id": oid}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.coll, tt.doc)
			if got["_id"] != oid.Hex() {
				t.Errorf("_id = %v, want %s", got["_id"], oid.Hex())
			}
			if got["_collection"] != string(tt.coll) {
				t.Errorf("_collection = %v", got["_collection"])
			}
			if got["name"] != tt.wantName {
				t.Errorf("name = %v, want %v", got["name"], tt.wantName)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
