package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/safebite/platform/internal/common/models"
)

// FallbackGroceries returns placeholder offers built around the query
func FallbackGroceries(query string, now time.Time) []models.GroceryOffer {
	title := titleCase(query)
	lower := strings.ToLower(query)
	escaped := url.QueryEscape(query)
	ts := now.Unix()

	offers := []models.GroceryOffer{
		{
			Name:        "Organic " + title,
			Brand:       "Organic Harvest",
			Description: "Premium quality organic " + lower,
			Price:       199, SalePrice: 149, MarketPrice: 199,
			ImageURL: "https://source.unsplash.com/random/300x300/?" + escaped + ",grocery",
			Source:   "Blinkit", Platform: "Blinkit",
			Redirect: "https://blinkit.com/search/" + escaped,
			Offers:   []string{"25% off", "Buy 1 Get 1 Free"},
			Weight:   "500g", Rating: 4.5,
		},
		{
			Name:        "Fresh " + title,
			Brand:       "Fresh Harvest",
			Description: "Farm fresh " + lower + " for your daily needs",
			Price:       149, SalePrice: 129, MarketPrice: 149,
			ImageURL: "https://source.unsplash.com/random/300x300/?fresh," + escaped,
			Source:   "BigBasket", Platform: "BigBasket",
			Redirect: "https://www.bigbasket.com/ps/?q=" + escaped,
			Offers:   []string{"15% off"},
			Weight:   "1kg", Rating: 4.2,
		},
		{
			Name:        "Premium " + title,
			Brand:       "Premium Foods",
			Description: "Premium quality " + lower + " for your family",
			Price:       299, SalePrice: 249, MarketPrice: 299,
			ImageURL: "https://source.unsplash.com/random/300x300/?premium," + escaped,
			Source:   "Zepto", Platform: "Zepto",
			Redirect: "https://www.zeptonow.com/search?q=" + escaped,
			Offers:   []string{"₹50 off"},
			Weight:   "750g", Rating: 4.7,
		},
		{
			Name:        "Value Pack " + title,
			Brand:       "Value Foods",
			Description: "Economical " + lower + " pack for daily use",
			Price:       99, SalePrice: 89, MarketPrice: 99,
			ImageURL: "https://source.unsplash.com/random/300x300/?value," + escaped,
			Source:   "JioMart", Platform: "JioMart",
			Redirect: "https://www.jiomart.com/search/" + escaped,
			Offers:   []string{"10% off"},
			Weight:   "250g", Rating: 4.0,
		},
	}

	for i := range offers {
		offers[i].ID = fmt.Sprintf("fallback_%d_%d", i+1, ts)
		offers[i].Category = "Grocery"
		offers[i].InStock = true
		offers[i].DiscountPercent = ExtractDiscountPercentage(strings.Join(offers[i].Offers, " "))
	}
	return offers
}

func coord(v float64) *float64 { return &v }

var fallbackRestaurants = map[string][]models.Restaurant{
	"hyderabad": {
		{
			Name: "Paradise Biryani", Redirect: "https://www.zomato.com/hyderabad/paradise-biryani",
			Rating: 4.2, DeliveryTime: "30-35 mins", PriceRange: "₹350 for two",
			Cuisine: "North Indian", Address: "Masab Tank, Hyderabad",
			ImageURL: "https://source.unsplash.com/random/300x300/?biryani,restaurant",
			Platform: "Zomato", Latitude: coord(17.3950), Longitude: coord(78.4867),
			PopularDishes: []string{"Chicken Biryani", "Mutton Biryani", "Kebabs"},
			Offers:        []string{"50% off up to ₹100", "Free delivery"},
		},
		{
			Name: "Bawarchi Restaurant", Redirect: "https://www.swiggy.com/restaurants/bawarchi-restaurant-hyderabad",
			Rating: 4.0, DeliveryTime: "35-40 mins", PriceRange: "₹300 for two",
			Cuisine: "North Indian", Address: "RTC X Roads, Hyderabad",
			ImageURL: "https://source.unsplash.com/random/300x300/?indian,restaurant",
			Platform: "Swiggy", Latitude: coord(17.4010), Longitude: coord(78.4930),
			PopularDishes: []string{"Hyderabadi Biryani", "Butter Chicken", "Rumali Roti"},
			Offers:        []string{"40% off up to ₹80", "Free delivery"},
		},
	},
	"mumbai": {
		{
			Name: "Trishna", Redirect: "https://www.zomato.com/mumbai/trishna-fort",
			Rating: 4.5, DeliveryTime: "30-35 mins", PriceRange: "₹1500 for two",
			Cuisine: "Seafood", Address: "Fort, Mumbai",
			ImageURL: "https://source.unsplash.com/random/300x300/?seafood,restaurant",
			Platform: "Zomato", Latitude: coord(18.9322), Longitude: coord(72.8328),
			PopularDishes: []string{"Butter Garlic Crab", "Prawns Koliwada", "Fish Tikka"},
			Offers:        []string{"20% off up to ₹200", "Free delivery"},
		},
	},
	"delhi": {
		{
			Name: "Karim's", Redirect: "https://www.zomato.com/ncr/karims-jama-masjid-old-delhi",
			Rating: 4.5, DeliveryTime: "30-35 mins", PriceRange: "₹600 for two",
			Cuisine: "North Indian", Address: "Jama Masjid, Old Delhi",
			ImageURL: "https://source.unsplash.com/random/300x300/?kebab,restaurant",
			Platform: "Zomato", Latitude: coord(28.6507), Longitude: coord(77.2334),
			PopularDishes: []string{"Mutton Burra", "Chicken Jahangiri", "Mutton Korma"},
			Offers:        []string{"30% off up to ₹150", "Free delivery"},
		},
	},
	"bangalore": {
		{
			Name: "MTR", Redirect: "https://www.zomato.com/bangalore/mavalli-tiffin-room-mtr-lalbagh-bangalore",
			Rating: 4.6, DeliveryTime: "30-35 mins", PriceRange: "₹400 for two",
			Cuisine: "South Indian", Address: "Lalbagh, Bangalore",
			ImageURL: "https://source.unsplash.com/random/300x300/?dosa,restaurant",
			Platform: "Zomato", Latitude: coord(12.9516), Longitude: coord(77.5932),
			PopularDishes: []string{"Masala Dosa", "Rava Idli", "Filter Coffee"},
			Offers:        []string{"25% off up to ₹125", "Free delivery"},
		},
	},
}

var cityAliases = []struct {
	city  string
	names []string
}{
	{"hyderabad", []string{"hyderabad"}},
	{"mumbai", []string{"mumbai", "bombay"}},
	{"delhi", []string{"delhi"}},
	{"bangalore", []string{"bangalore", "bengaluru"}},
}

func fallbackCity(city string) string {
	lower := strings.ToLower(city)
	for _, alias := range cityAliases {
		for _, name := range alias.names {
			if strings.Contains(lower, name) {
				return alias.city
			}
		}
	}
	return "hyderabad"
}

// FallbackRestaurants returns well-known restaurants for the city, narrowed to
// those matching food by dish, cuisine or name when any do. Unknown cities use Hyderabad.
func FallbackRestaurants(food, city string) []models.Restaurant {
	restaurants := fallbackRestaurants[fallbackCity(city)]

	needle := strings.ToLower(strings.TrimSpace(food))
	var matched []models.Restaurant
	if needle != "" {
		for _, r := range restaurants {
			if matchesFood(r, needle) {
				matched = append(matched, r)
			}
		}
	}
	if len(matched) == 0 {
		matched = restaurants
	}

	out := make([]models.Restaurant, len(matched))
	copy(out, matched)
	return out
}

func matchesFood(r models.Restaurant, needle string) bool {
	for _, dish := range r.PopularDishes {
		if strings.Contains(strings.ToLower(dish), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Cuisine), needle) ||
		strings.Contains(strings.ToLower(r.Name), needle)
}
