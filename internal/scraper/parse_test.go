package scraper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/safebite/platform/internal/common/config"
)

func site(t *testing.T, name string) config.SiteConfig {
	t.Helper()
	for _, s := range DefaultSites() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no built-in site %q", name)
	return config.SiteConfig{}
}

const blinkitHTML = `
<html><body>
<div data-testid="product-card">
  <a href="/prn/amul-taaza/123"><img src="https://cdn.example/amul.jpg"></a>
  <div class="ProductName__title">Amul Taaza Toned Milk</div>
  <div class="Weight__label">500 ml</div>
  <div class="Price__value">₹27</div>
  <div class="OriginalPrice__strike">₹30</div>
  <div class="DiscountTag__badge">10% off</div>
</div>
<div data-testid="product-card">
  <div class="Price__value">₹55</div>
</div>
<div data-testid="product-card">
  <img src="https://cdn.example/empty.jpg">
</div>
</body></html>`

func TestParseGroceryBlinkit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	offers, err := ParseGrocery(blinkitHTML, site(t, "blinkit"), now)
	if err != nil {
		t.Fatalf("ParseGrocery() error = %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2 (empty card skipped)", len(offers))
	}

	milk := offers[0]
	checks := []struct {
		field string
		got   interface{}
		want  interface{}
	}{
		{"ID", milk.ID, "blinkit_1700000000_0"},
		{"Name", milk.Name, "Amul Taaza Toned Milk"},
		{"Brand", milk.Brand, "Amul"},
		{"Category", milk.Category, "Grocery"},
		{"Description", milk.Description, "Amul Taaza Toned Milk 500 ml"},
		{"Price", milk.Price, 27.0},
		{"SalePrice", milk.SalePrice, 27.0},
		{"MarketPrice", milk.MarketPrice, 30.0},
		{"DiscountPercent", milk.DiscountPercent, 10},
		{"ImageURL", milk.ImageURL, "https://cdn.example/amul.jpg"},
		{"Redirect", milk.Redirect, "https://blinkit.com/prn/amul-taaza/123"},
		{"Source", milk.Source, "Blinkit"},
		{"Platform", milk.Platform, "Blinkit"},
		{"Weight", milk.Weight, "500 ml"},
		{"InStock", milk.InStock, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
	if len(milk.Offers) != 1 || milk.Offers[0] != "10% off" {
		t.Errorf("Offers = %v", milk.Offers)
	}

	unknown := offers[1]
	if unknown.ID != "blinkit_1700000000_1" || unknown.Name != "Unknown Product" || unknown.Price != 55 {
		t.Errorf("second offer = %+v", unknown)
	}
	if unknown.MarketPrice != 55 {
		t.Errorf("MarketPrice without original price = %v, want 55", unknown.MarketPrice)
	}
	if unknown.Offers == nil {
		t.Error("Offers should be an empty slice, not nil")
	}
}

func TestParseGroceryAlternativeCardSelector(t *testing.T) {
	html := `<div class="item-wrapper">
  <div class="brand">Fortune</div>
  <div class="item-name">Sunflower Oil 1 l</div>
  <div class="sp">Rs 150</div>
  <div class="mrp">Rs 200</div>
  <a href="https://www.bigbasket.com/pd/1/">view</a>
</div>`

	offers, err := ParseGrocery(html, site(t, "bigbasket"), time.Now())
	if err != nil {
		t.Fatalf("ParseGrocery() error = %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want 1", len(offers))
	}
	o := offers[0]
	if o.Brand != "Fortune" || o.Weight != "1 l" || o.Redirect != "https://www.bigbasket.com/pd/1/" {
		t.Errorf("offer = %+v", o)
	}
	if o.DiscountPercent != 25 {
		t.Errorf("DiscountPercent = %d, want 25 from prices", o.DiscountPercent)
	}
}

func TestParseGroceryCapsCards(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<div class="product-item"><div class="product-name">Item %d</div><span class="final-price">₹%d</span></div>`, i, 10+i)
	}

	offers, err := ParseGrocery(b.String(), site(t, "jiomart"), time.Now())
	if err != nil {
		t.Fatalf("ParseGrocery() error = %v", err)
	}
	if len(offers) != groceryMaxItems {
		t.Errorf("got %d offers, want %d", len(offers), groceryMaxItems)
	}
}

const zomatoHTML = `
<div class="jumbo-tracker">
  <a href="/hyderabad/paradise-biryani"><img src="https://cdn.example/paradise.jpg"></a>
  <h4>Paradise</h4>
  <div class="sc-bczRLJ gGpZIh">
    <div>4.3★</div>
    <div>35 min</div>
    <div>₹400 for two</div>
    <div>Biryani, North Indian</div>
  </div>
</div>
<div class="jumbo-tracker">
  <a href="/hyderabad/unnamed"></a>
</div>`

func TestParseRestaurantsZomato(t *testing.T) {
	restaurants, err := ParseRestaurants(zomatoHTML, site(t, "zomato"), "biryani", "Hyderabad", nil)
	if err != nil {
		t.Fatalf("ParseRestaurants() error = %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("got %d restaurants, want 2", len(restaurants))
	}

	r := restaurants[0]
	if r.Name != "Paradise" || r.Rating != 4.3 || r.DeliveryTime != "35 min" {
		t.Errorf("restaurant = %+v", r)
	}
	if r.PriceRange != "₹400 for two" || r.Cuisine != "Biryani, North Indian" || r.Address != "Hyderabad" {
		t.Errorf("details = %q / %q / %q", r.PriceRange, r.Cuisine, r.Address)
	}
	if r.Redirect != "https://www.zomato.com/hyderabad/paradise-biryani" || r.Platform != "Zomato" {
		t.Errorf("redirect = %q, platform = %q", r.Redirect, r.Platform)
	}
	if r.PopularDishes[0] != "Chicken Biryani" || r.Offers[0] != "60% off up to ₹120" {
		t.Errorf("dishes = %v, offers = %v", r.PopularDishes, r.Offers)
	}
	if r.Latitude != nil || r.DistanceKm != nil {
		t.Errorf("coordinates should be unset without attributes")
	}

	fallback := restaurants[1]
	if fallback.Name != "Unknown Restaurant" || fallback.Rating != 4.0 || fallback.DeliveryTime != "30-40 mins" ||
		fallback.PriceRange != "₹300 for two" || fallback.Cuisine != "Various" {
		t.Errorf("defaults = %+v", fallback)
	}
	if !strings.HasPrefix(fallback.ImageURL, "https://source.unsplash.com/") {
		t.Errorf("ImageURL = %q", fallback.ImageURL)
	}
}

func TestParseRestaurantsDistance(t *testing.T) {
	s := config.SiteConfig{
		Name:          "local",
		Platform:      "Local",
		Kind:          KindFood,
		CardSelectors: []string{"div.r"},
		Selectors: config.Selectors{
			Name:          "h3",
			LatitudeAttr:  "data-lat",
			LongitudeAttr: "data-lon",
		},
	}
	html := `<div class="r" data-lat="17.40" data-lon="78.49"><h3>Cafe</h3></div>
<div class="r" data-lat="oops" data-lon="78.49"><h3>Nowhere</h3></div>`

	restaurants, err := ParseRestaurants(html, s, "coffee", "Hyderabad", &Point{Lat: 17.385, Lon: 78.4867})
	if err != nil {
		t.Fatalf("ParseRestaurants() error = %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("got %d restaurants, want 2", len(restaurants))
	}
	if d := restaurants[0].DistanceKm; d == nil || *d != 1.7 {
		t.Errorf("DistanceKm = %v, want 1.7", d)
	}
	if restaurants[1].Latitude != nil || restaurants[1].DistanceKm != nil {
		t.Errorf("invalid coordinates should leave location unset")
	}
}

func TestMergeSites(t *testing.T) {
	overrides := []config.SiteConfig{
		{Name: "Blinkit", MaxItems: 5, Selectors: config.Selectors{Name: "h2.title"}},
		{Name: "dmart", Kind: KindGrocery, SearchURL: "https://www.dmart.in/search?searchTerm=%s"},
	}

	merged := MergeSites(DefaultSites(), overrides)
	if len(merged) != len(DefaultSites())+1 {
		t.Fatalf("merged = %d sites", len(merged))
	}

	var blinkit config.SiteConfig
	for _, s := range merged {
		if s.Name == "blinkit" {
			blinkit = s
		}
	}
	if blinkit.MaxItems != 5 || blinkit.Selectors.Name != "h2.title" {
		t.Errorf("override not applied: %+v", blinkit)
	}
	if blinkit.Selectors.Price != `div[class*="Price"]` || blinkit.Platform != "Blinkit" {
		t.Errorf("unset override fields should keep defaults: %+v", blinkit.Selectors)
	}

	dmart := merged[len(merged)-1]
	if dmart.Platform != "dmart" || dmart.MaxItems != groceryMaxItems {
		t.Errorf("new site defaults = %+v", dmart)
	}
}

func TestSelectSites(t *testing.T) {
	got := SelectSites(DefaultSites(), KindGrocery, []string{"zepto", "swiggy", "Blinkit", "unknown"})
	if len(got) != 2 || got[0].Name != "zepto" || got[1].Name != "blinkit" {
		names := make([]string, len(got))
		for i, s := range got {
			names[i] = s.Name
		}
		t.Errorf("SelectSites = %v, want [zepto blinkit]", names)
	}
}

func TestSearchURL(t *testing.T) {
	got := searchURL(site(t, "jiomart"), "basmati rice & dal")
	want := "https://www.jiomart.com/search/basmati%20rice%20%26%20dal"
	if got != want {
		t.Errorf("searchURL = %q, want %q", got, want)
	}
}
