package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	Kafka       KafkaConfig
	Services    ServicesConfig
	Scraper     ScraperConfig
	PriceWatch  PriceWatchConfig
	LogLevel    string
	Environment string
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MongoConfig represents the catalog database configuration
type MongoConfig struct {
	URI                 string
	Database            string
	ProductsCollection  string
	GroceryCollection   string
	ProductsSearchIndex string
	GrocerySearchIndex  string
	SearchMode          string // "atlas" or "regex"
	ConnectTimeout      time.Duration
	ServerSelectTimeout time.Duration
}

// DatabaseConfig represents the relational database configuration
type DatabaseConfig struct {
	Host                   string
	Port                   int
	Username               string
	Password               string
	DBName                 string
	MaxIdleConns           int
	MaxOpenConns           int
	ConnMaxLifetimeMinutes int
}

// KafkaConfig represents the Kafka configuration
type KafkaConfig struct {
	Brokers           []string
	ConsumerGroup     string
	OfferTopic        string
	NotificationTopic string
}

// ServicesConfig represents the service configurations
type ServicesConfig struct {
	CatalogServicePort      int
	ScraperServicePort      int
	PriceWatchServicePort   int
	NotificationServicePort int
}

// ScraperConfig represents the scraper configuration
type ScraperConfig struct {
	Mode               string // "browser" or "http"
	UserAgent          string
	RequestTimeout     time.Duration
	ConcurrentRequests int
	RequestDelay       time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	CacheTTL           time.Duration
	SitesFile          string
	GrocerySources     []string
	FoodSources        []string
	Proxies            []string
	PublishOffers      bool
}

// PriceWatchConfig represents the price watch configuration
type PriceWatchConfig struct {
	RetentionDays  int
	NotifyCooldown time.Duration
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 10000),
			ReadTimeout:  time.Duration(getEnvAsInt("SERVER_READ_TIMEOUT", 15)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("SERVER_WRITE_TIMEOUT", 120)) * time.Second,
			IdleTimeout:  time.Duration(getEnvAsInt("SERVER_IDLE_TIMEOUT", 60)) * time.Second,
		},
		Mongo: MongoConfig{
			URI:                 getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:            getEnv("MONGO_DB", "safebite"),
			ProductsCollection:  getEnv("MONGO_PRODUCTS_COLLECTION", "products"),
			GroceryCollection:   getEnv("MONGO_GROCERY_COLLECTION", "Grocery Products"),
			ProductsSearchIndex: getEnv("MONGO_PRODUCTS_SEARCH_INDEX", "default-products"),
			GrocerySearchIndex:  getEnv("MONGO_GROCERY_SEARCH_INDEX", "default"),
			SearchMode:          strings.ToLower(getEnv("CATALOG_SEARCH_MODE", "atlas")),
			ConnectTimeout:      time.Duration(getEnvAsInt("MONGO_CONNECT_TIMEOUT", 10)) * time.Second,
			ServerSelectTimeout: time.Duration(getEnvAsInt("MONGO_SERVER_SELECTION_TIMEOUT", 5)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnvAsInt("DB_PORT", 5432),
			Username:               getEnv("DB_USER", "postgres"),
			Password:               getEnv("DB_PASSWORD", "postgres"),
			DBName:                 getEnv("DB_NAME", "safebite"),
			MaxIdleConns:           getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:           getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetimeMinutes: getEnvAsInt("DB_CONN_MAX_LIFETIME", 30),
		},
		Kafka: KafkaConfig{
			Brokers:           getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "safebite-group"),
			OfferTopic:        getEnv("KAFKA_OFFER_TOPIC", "grocery-offers"),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "price-alerts"),
		},
		Services: ServicesConfig{
			CatalogServicePort:      getEnvAsInt("CATALOG_SERVICE_PORT", 10000),
			ScraperServicePort:      getEnvAsInt("SCRAPER_SERVICE_PORT", 5001),
			PriceWatchServicePort:   getEnvAsInt("PRICEWATCH_SERVICE_PORT", 9002),
			NotificationServicePort: getEnvAsInt("NOTIFICATION_SERVICE_PORT", 9003),
		},
		Scraper: ScraperConfig{
			Mode:               strings.ToLower(getEnv("SCRAPER_MODE", "browser")),
			UserAgent:          getEnv("SCRAPER_USER_AGENT", ""),
			RequestTimeout:     time.Duration(getEnvAsInt("SCRAPER_REQUEST_TIMEOUT", 60)) * time.Second,
			ConcurrentRequests: getEnvAsInt("SCRAPER_CONCURRENT_REQUESTS", 4),
			RequestDelay:       time.Duration(getEnvAsInt("SCRAPER_REQUEST_DELAY", 1000)) * time.Millisecond,
			RetryAttempts:      getEnvAsInt("SCRAPER_RETRY_ATTEMPTS", 3),
			RetryDelay:         time.Duration(getEnvAsInt("SCRAPER_RETRY_DELAY", 5)) * time.Second,
			CacheTTL:           time.Duration(getEnvAsInt("SCRAPER_CACHE_TTL", 60)) * time.Minute,
			SitesFile:          getEnv("SCRAPER_SITES_FILE", ""),
			GrocerySources:     getEnvAsSlice("SCRAPER_GROCERY_SOURCES", []string{"blinkit", "bigbasket", "zepto", "jiomart"}),
			FoodSources:        getEnvAsSlice("SCRAPER_FOOD_SOURCES", []string{"swiggy", "zomato"}),
			Proxies:            getEnvAsSlice("SCRAPER_PROXIES", nil),
			PublishOffers:      getEnvAsBool("SCRAPER_PUBLISH_OFFERS", true),
		},
		PriceWatch: PriceWatchConfig{
			RetentionDays:  getEnvAsInt("PRICEWATCH_RETENTION_DAYS", 90),
			NotifyCooldown: time.Duration(getEnvAsInt("PRICEWATCH_NOTIFY_COOLDOWN_HOURS", 24)) * time.Hour,
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Mongo.SearchMode {
	case "atlas", "regex":
	default:
		return fmt.Errorf("invalid CATALOG_SEARCH_MODE %q: want atlas or regex", c.Mongo.SearchMode)
	}
	switch c.Scraper.Mode {
	case "browser", "http":
	default:
		return fmt.Errorf("invalid SCRAPER_MODE %q: want browser or http", c.Scraper.Mode)
	}
	if c.Scraper.ConcurrentRequests <= 0 {
		return fmt.Errorf("SCRAPER_CONCURRENT_REQUESTS must be positive, got %d", c.Scraper.ConcurrentRequests)
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return split(valueStr, ",")
}

func split(s string, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
