package scraper

import (
	"strings"

	"github.com/safebite/platform/internal/common/config"
)

const (
	KindGrocery = "grocery"
	KindFood    = "food"
)

const (
	groceryMaxItems = 15
	foodMaxItems    = 10
)

// swiggyBlock is the generated class Swiggy and Zomato wrap card details in
const swiggyBlock = "div.sc-bczRLJ.gGpZIh"

// DefaultSites returns the built-in scraping sources
func DefaultSites() []config.SiteConfig {
	return []config.SiteConfig{
		{
			Name:          "blinkit",
			Platform:      "Blinkit",
			Kind:          KindGrocery,
			HomeURL:       "https://blinkit.com",
			SearchURL:     "https://blinkit.com/s/?q=%s",
			BaseURL:       "https://blinkit.com",
			WaitSelector:  `div[data-testid="product-card"]`,
			CardSelectors: []string{`div[data-testid="product-card"]`},
			MaxItems:      groceryMaxItems,
			Selectors: config.Selectors{
				Name:          `div[class*="ProductName"]`,
				Image:         "img",
				Price:         `div[class*="Price"]`,
				OriginalPrice: `div[class*="OriginalPrice"]`,
				Link:          "a",
				Weight:        `div[class*="Weight"]`,
				Offer:         `div[class*="DiscountTag"]`,
				Category:      `div[class*="Category"]`,
			},
		},
		{
			Name:          "bigbasket",
			Platform:      "BigBasket",
			Kind:          KindGrocery,
			HomeURL:       "https://www.bigbasket.com/",
			SearchURL:     "https://www.bigbasket.com/ps/?q=%s",
			BaseURL:       "https://www.bigbasket.com",
			WaitSelector:  "div.prod-deck, div.item-wrapper",
			CardSelectors: []string{"div.prod-deck", "div.item-wrapper"},
			MaxItems:      groceryMaxItems,
			Selectors: config.Selectors{
				Name:          "div.prod-name, div.item-name",
				Image:         "img",
				Price:         "div.discnt-price, div.sp",
				OriginalPrice: "div.mrp, div.mrp-price",
				Link:          "a",
				Weight:        "div.qty, div.weight",
				Offer:         "div.save-price, div.offer",
				Brand:         "div.brand, div.brand-name",
				Category:      "div.category",
			},
		},
		{
			Name:          "zepto",
			Platform:      "Zepto",
			Kind:          KindGrocery,
			HomeURL:       "https://www.zeptonow.com/",
			SearchURL:     "https://www.zeptonow.com/search?q=%s",
			BaseURL:       "https://www.zeptonow.com",
			WaitSelector:  `div.product-card, div[data-testid="product-card"]`,
			CardSelectors: []string{"div.product-card", `div[data-testid="product-card"]`},
			MaxItems:      groceryMaxItems,
			Selectors: config.Selectors{
				Name:          "p.product-title, div.product-name",
				Image:         "img",
				Price:         "p.product-price, div.discounted-price",
				OriginalPrice: "p.product-mrp, div.original-price",
				Link:          "a",
				Weight:        "p.product-weight, div.product-weight",
				Offer:         "div.offer-tag, div.discount-tag",
			},
		},
		{
			Name:          "jiomart",
			Platform:      "JioMart",
			Kind:          KindGrocery,
			HomeURL:       "https://www.jiomart.com/",
			SearchURL:     "https://www.jiomart.com/search/%s",
			BaseURL:       "https://www.jiomart.com",
			WaitSelector:  "div.product-item, div.jm-col-4",
			CardSelectors: []string{"div.product-item", "div.jm-col-4"},
			MaxItems:      groceryMaxItems,
			Selectors: config.Selectors{
				Name:          "div.product-name, span.clsgetname",
				Image:         "img",
				Price:         "span.final-price, span.jm-price",
				OriginalPrice: "span.line-through, span.jm-mrp",
				Link:          "a",
				Weight:        "span.weight, span.jm-weight",
				Offer:         "span.save-price, span.jm-discount",
			},
		},
		{
			Name:          "instamart",
			Platform:      "Swiggy Instamart",
			Source:        "Instamart",
			Kind:          KindGrocery,
			HomeURL:       "https://www.swiggy.com/instamart",
			SearchURL:     "https://www.swiggy.com/search?query=%s&context=instamart",
			BaseURL:       "https://www.swiggy.com",
			WaitSelector:  `div[data-testid="product-card"], div.styles_container__3Fl4V`,
			CardSelectors: []string{`div[data-testid="product-card"]`, "div.styles_container__3Fl4V"},
			MaxItems:      groceryMaxItems,
			Selectors: config.Selectors{
				Name:          "div.styles_itemName__3ZmZZ, div.styles_productName__3RRvk",
				Image:         "img",
				Price:         "div.styles_itemPrice__1Nrpd, div.styles_price__2xrhD",
				OriginalPrice: "div.styles_strikePrice__3WGQE",
				Link:          "a",
				Weight:        "div.styles_quantity__1hCD9, div.styles_weight__2SLwg",
				Offer:         "div.styles_discountTag__3Uy8r",
			},
		},
		{
			Name:               "swiggy",
			Platform:           "Swiggy",
			Kind:               KindFood,
			HomeURL:            "https://www.swiggy.com",
			SearchURL:          "https://www.swiggy.com/search?query=%s",
			BaseURL:            "https://www.swiggy.com",
			WaitSelector:       `div[data-testid="restaurant-card"]`,
			CardSelectors:      []string{`div[data-testid="restaurant-card"]`, swiggyBlock},
			MaxItems:           foodMaxItems,
			LocationInput:      `input[placeholder="Enter your delivery location"]`,
			LocationSuggestion: swiggyBlock + " " + swiggyBlock + " div:nth-child(1)",
			Offers:             []string{"50% off up to ₹100", "Free delivery"},
			Selectors: config.Selectors{
				Name:         swiggyBlock + " h3",
				Image:        "img",
				Link:         "a",
				Rating:       swiggyBlock + ` span:contains("★")`,
				DeliveryTime: swiggyBlock + ` div:contains("min")`,
				PriceRange:   swiggyBlock + ` span:contains("₹")`,
				Cuisine:      swiggyBlock + ` div:contains(",")`,
				Address:      swiggyBlock + ` div:contains("km")`,
			},
		},
		{
			Name:               "zomato",
			Platform:           "Zomato",
			Kind:               KindFood,
			HomeURL:            "https://www.zomato.com",
			SearchURL:          "https://www.zomato.com/search?q=%s",
			BaseURL:            "https://www.zomato.com",
			WaitSelector:       "div.jumbo-tracker",
			CardSelectors:      []string{"div.jumbo-tracker", swiggyBlock},
			MaxItems:           foodMaxItems,
			LocationInput:      `input[placeholder="Search for city, area or restaurant"]`,
			LocationSuggestion: swiggyBlock + " div:nth-child(1)",
			Offers:             []string{"60% off up to ₹120", "Free delivery"},
			Selectors: config.Selectors{
				Name:         "h4",
				Image:        "img",
				Link:         "a",
				Rating:       swiggyBlock + ` div:contains("★")`,
				DeliveryTime: swiggyBlock + ` div:contains("min")`,
				PriceRange:   swiggyBlock + ` div:contains("₹")`,
				Cuisine:      swiggyBlock + ` div:contains(",")`,
				Address:      swiggyBlock + ` div:contains("km")`,
			},
		},
	}
}

// MergeSites overlays overrides onto base by name. Unknown names are appended.
// Empty override fields keep the base value.
func MergeSites(base, overrides []config.SiteConfig) []config.SiteConfig {
	out := make([]config.SiteConfig, len(base))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, site := range out {
		index[strings.ToLower(site.Name)] = i
	}

	for _, o := range overrides {
		i, ok := index[strings.ToLower(o.Name)]
		if !ok {
			index[strings.ToLower(o.Name)] = len(out)
			out = append(out, withDefaults(o))
			continue
		}
		out[i] = overlay(out[i], o)
	}
	return out
}

func overlay(b, o config.SiteConfig) config.SiteConfig {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&b.Platform, o.Platform)
	str(&b.Source, o.Source)
	str(&b.Kind, o.Kind)
	str(&b.HomeURL, o.HomeURL)
	str(&b.SearchURL, o.SearchURL)
	str(&b.BaseURL, o.BaseURL)
	str(&b.WaitSelector, o.WaitSelector)
	str(&b.LocationInput, o.LocationInput)
	str(&b.LocationSuggestion, o.LocationSuggestion)
	if len(o.CardSelectors) > 0 {
		b.CardSelectors = o.CardSelectors
	}
	if len(o.Offers) > 0 {
		b.Offers = o.Offers
	}
	if o.MaxItems > 0 {
		b.MaxItems = o.MaxItems
	}

	s, so := &b.Selectors, o.Selectors
	str(&s.Name, so.Name)
	str(&s.Image, so.Image)
	str(&s.Price, so.Price)
	str(&s.OriginalPrice, so.OriginalPrice)
	str(&s.Link, so.Link)
	str(&s.Weight, so.Weight)
	str(&s.Offer, so.Offer)
	str(&s.Brand, so.Brand)
	str(&s.Category, so.Category)
	str(&s.Rating, so.Rating)
	str(&s.DeliveryTime, so.DeliveryTime)
	str(&s.PriceRange, so.PriceRange)
	str(&s.Cuisine, so.Cuisine)
	str(&s.Address, so.Address)
	str(&s.LatitudeAttr, so.LatitudeAttr)
	str(&s.LongitudeAttr, so.LongitudeAttr)
	return b
}

func withDefaults(site config.SiteConfig) config.SiteConfig {
	if site.Platform == "" {
		site.Platform = site.Name
	}
	if site.MaxItems <= 0 {
		site.MaxItems = groceryMaxItems
		if site.Kind == KindFood {
			site.MaxItems = foodMaxItems
		}
	}
	return site
}

// SelectSites returns the sites of kind whose names are enabled, in enabled order
func SelectSites(all []config.SiteConfig, kind string, enabled []string) []config.SiteConfig {
	byName := make(map[string]config.SiteConfig, len(all))
	for _, site := range all {
		if site.Kind == kind {
			byName[strings.ToLower(site.Name)] = site
		}
	}

	var out []config.SiteConfig
	for _, name := range enabled {
		if site, ok := byName[strings.ToLower(name)]; ok {
			out = append(out, site)
		}
	}
	return out
}

func sourceName(site config.SiteConfig) string {
	if site.Source != "" {
		return site.Source
	}
	return site.Platform
}
