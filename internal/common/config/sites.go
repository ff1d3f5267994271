package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all target-site specific settings for one scraping source.
type SiteConfig struct {
	Name               string    `yaml:"name"`
	Platform           string    `yaml:"platform"`
	Source             string    `yaml:"source"`
	Kind               string    `yaml:"kind"` // "grocery" or "food"
	HomeURL            string    `yaml:"home_url"`
	SearchURL          string    `yaml:"search_url"` // %s is replaced by the escaped query
	BaseURL            string    `yaml:"base_url"` // prefixed to relative links
	WaitSelector       string    `yaml:"wait_selector"`
	CardSelectors      []string  `yaml:"card_selectors"`
	MaxItems           int       `yaml:"max_items"`
	LocationInput      string    `yaml:"location_input"`
	LocationSuggestion string    `yaml:"location_suggestion"`
	Offers             []string  `yaml:"offers"`
	Selectors          Selectors `yaml:"selectors"`
}

// Selectors are CSS selectors evaluated relative to a product or restaurant card.
type Selectors struct {
	Name          string `yaml:"name"`
	Image         string `yaml:"image"`
	Price         string `yaml:"price"`
	OriginalPrice string `yaml:"original_price"`
	Link          string `yaml:"link"`
	Weight        string `yaml:"weight"`
	Offer         string `yaml:"offer"`
	Brand         string `yaml:"brand"`
	Category      string `yaml:"category"`
	Rating        string `yaml:"rating"`
	DeliveryTime  string `yaml:"delivery_time"`
	PriceRange    string `yaml:"price_range"`
	Cuisine       string `yaml:"cuisine"`
	Address       string `yaml:"address"`
	LatitudeAttr  string `yaml:"latitude_attr"`
	LongitudeAttr string `yaml:"longitude_attr"`
}

type sitesFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

// LoadSiteConfigs reads the YAML file that overrides or extends the built-in scraping sources.
func LoadSiteConfigs(path string) ([]SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file at '%s': %w", path, err)
	}
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML sites file: %w", err)
	}
	for i, site := range f.Sites {
		if site.Name == "" {
			return nil, fmt.Errorf("site #%d in '%s' has no name", i+1, path)
		}
	}
	return f.Sites, nil
}
