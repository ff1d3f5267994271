package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seedCollection is the subset of *mongo.Collection seeding needs
type seedCollection interface {
	Name() string
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

var sampleProducts = []bson.M{
	{
		"name":        "Organic Greek Yogurt",
		"brand":       "HealthyChoice",
		"category":    "dairy",
		"description": "High-protein, probiotic-rich Greek yogurt made from organic milk.",
		"ingredients": bson.A{"Organic Milk", "Live Active Cultures"},
		"nutritionalInfo": bson.M{
			"calories": 120, "protein": 15, "carbs": 7, "fat": 5, "fiber": 0, "sugar": 5,
		},
		"allergens":   bson.A{"Milk"},
		"dietaryInfo": bson.A{"High Protein", "Gluten Free", "Probiotic"},
		"healthScore": 8.5,
		"tags":        bson.A{"breakfast", "snack", "protein"},
	},
	{
		"name":        "Quinoa & Vegetable Bowl",
		"brand":       "MealPrep",
		"category":    "grains",
		"description": "Ready-to-eat bowl with quinoa, roasted vegetables, and tahini dressing.",
		"ingredients": bson.A{"Quinoa", "Bell Peppers", "Zucchini", "Chickpeas", "Tahini", "Olive Oil"},
		"nutritionalInfo": bson.M{
			"calories": 350, "protein": 12, "carbs": 45, "fat": 14, "fiber": 8, "sugar": 4,
		},
		"allergens":   bson.A{"Sesame"},
		"dietaryInfo": bson.A{"Vegan", "Gluten Free", "High Fiber"},
		"healthScore": 9.2,
		"tags":        bson.A{"lunch", "dinner", "plant-based"},
	},
	{
		"name":        "Almond Butter",
		"brand":       "NutWorks",
		"category":    "protein",
		"description": "Stone-ground almond butter with no added sugar or oils.",
		"ingredients": bson.A{"Almonds"},
		"allergens":   bson.A{"Tree Nuts"},
		"dietaryInfo": bson.A{"Keto", "Paleo", "Vegan"},
		"healthScore": 7.8,
		"tags":        bson.A{"spread", "snack", "breakfast"},
	},
	{
		"food_name":   "Paneer Butter Masala",
		"category":    "main course",
		"description": "Cottage cheese cubes in a mildly spiced tomato and butter gravy.",
		"allergens":   bson.A{"Milk"},
		"healthScore": 5.4,
		"tags":        bson.A{"dinner", "north indian"},
	},
	{
		"recipe_name": "Masala Oats",
		"category":    "breakfast",
		"description": "Savory oats cooked with vegetables and Indian spices.",
		"dietaryInfo": bson.A{"Vegetarian", "High Fiber"},
		"healthScore": 8.1,
		"tags":        bson.A{"breakfast", "quick"},
	},
}

var sampleGrocery = []bson.M{
	{"product": "Organic Baby Spinach", "brand": "GreenFields", "category": "vegetables", "sub_category": "leafy greens", "price": 3.99, "store": "Whole Foods", "availability": "in-stock"},
	{"product": "Grass-Fed Ground Beef", "brand": "PurePastures", "category": "protein", "sub_category": "meat", "price": 8.99, "store": "Trader Joe's", "availability": "in-stock"},
	{"product": "Organic Avocados", "brand": "NatureRipe", "category": "fruits", "sub_category": "fresh fruit", "price": 5.99, "store": "Sprouts", "availability": "in-stock"},
	{"product": "Almond Milk", "brand": "NutMilk", "category": "beverages", "sub_category": "dairy free", "price": 3.49, "store": "Whole Foods", "availability": "in-stock"},
	{"product": "Amul Taaza Toned Milk", "brand": "Amul", "category": "dairy", "sub_category": "milk", "price": 27.0, "store": "Blinkit", "availability": "in-stock"},
	{"product": "India Gate Basmati Rice", "brand": "India Gate", "category": "staples", "sub_category": "rice", "price": 199.0, "store": "BigBasket", "availability": "in-stock"},
}

// seed fills coll with docs. A non-empty collection is left alone unless force is set,
// in which case it is emptied first.
func seed(ctx context.Context, w io.Writer, coll seedCollection, docs []bson.M, force bool) (int, error) {
	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", coll.Name(), err)
	}

	if count > 0 && !force {
		fmt.Fprintf(w, "%s already has %d documents, skipping (use --force to replace)\n", coll.Name(), count)
		return 0, nil
	}

	if count > 0 {
		res, err := coll.DeleteMany(ctx, bson.M{})
		if err != nil {
			return 0, fmt.Errorf("failed to clear %s: %w", coll.Name(), err)
		}
		fmt.Fprintf(w, "Cleared %d documents from %s\n", res.DeletedCount, coll.Name())
	}

	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	res, err := coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	fmt.Fprintf(w, "Inserted %d documents into %s\n", len(res.InsertedIDs), coll.Name())
	return len(res.InsertedIDs), nil
}

func newSeedCmd(timeout *time.Duration) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample documents into the product and grocery collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			catalogDB, closeMongo, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeMongo()

			out := cmd.OutOrStdout()
			if _, err := seed(ctx, out, catalogDB.Products, sampleProducts, force); err != nil {
				return err
			}
			if _, err := seed(ctx, out, catalogDB.Grocery, sampleGrocery, force); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing documents")
	return cmd
}
