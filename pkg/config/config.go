package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Logging     LoggingConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	Cache       CacheConfig
	Search      SearchConfig
	Pipeline    PipelineConfig
	OTEL        OTELConfig
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// DatabaseConfig holds catalog database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// GeolocationConfig holds location detection configuration
type GeolocationConfig struct {
	IPLookupURL     string
	GeocodeURL      string
	DefaultCountry  string
	DefaultCity     string
	DefaultCurrency string
	DefaultLanguage string
	DefaultTimezone string
}

// CacheConfig holds the in-process search cache configuration
type CacheConfig struct {
	TTLSeconds      int
	Capacity        int
	JanitorInterval int // seconds between expiry sweeps
}

// SearchConfig holds query execution configuration
type SearchConfig struct {
	PageSize       int
	BulkBatchSize  int
	QueryTimeoutMS int
}

// PipelineConfig toggles the orchestrator stages
type PipelineConfig struct {
	CacheEnabled        bool
	GeoEnabled          bool
	GeoBoost            float64
	SimilarityEnabled   bool
	SuggestionsEnabled  bool
	SuggestionsBlocking bool
	AnalyticsEnabled    bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "sunuchoix_catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		Geolocation: GeolocationConfig{
			IPLookupURL:     getEnv("GEO_IP_LOOKUP_URL", "http://ip-api.com/json"),
			GeocodeURL:      getEnv("GEO_GEOCODE_URL", ""),
			DefaultCountry:  getEnv("GEO_DEFAULT_COUNTRY", "SN"),
			DefaultCity:     getEnv("GEO_DEFAULT_CITY", "Dakar"),
			DefaultCurrency: getEnv("GEO_DEFAULT_CURRENCY", "XOF"),
			DefaultLanguage: getEnv("GEO_DEFAULT_LANGUAGE", "fr"),
			DefaultTimezone: getEnv("GEO_DEFAULT_TIMEZONE", "Africa/Dakar"),
		},
		Cache: CacheConfig{
			TTLSeconds:      getEnvAsInt("CACHE_TTL_SECONDS", 300),
			Capacity:        getEnvAsInt("CACHE_CAPACITY", 1000),
			JanitorInterval: getEnvAsInt("CACHE_JANITOR_SECONDS", 300),
		},
		Search: SearchConfig{
			PageSize:       getEnvAsInt("SEARCH_PAGE_SIZE", 20),
			BulkBatchSize:  getEnvAsInt("SEARCH_BULK_BATCH_SIZE", 5),
			QueryTimeoutMS: getEnvAsInt("SEARCH_QUERY_TIMEOUT_MS", 5000),
		},
		Pipeline: PipelineConfig{
			CacheEnabled:        getEnvAsBool("PIPELINE_CACHE_ENABLED", true),
			GeoEnabled:          getEnvAsBool("PIPELINE_GEO_ENABLED", true),
			GeoBoost:            getEnvAsFloat("PIPELINE_GEO_BOOST", 2.0),
			SimilarityEnabled:   getEnvAsBool("PIPELINE_SIMILARITY_ENABLED", true),
			SuggestionsEnabled:  getEnvAsBool("PIPELINE_SUGGESTIONS_ENABLED", true),
			SuggestionsBlocking: getEnvAsBool("PIPELINE_SUGGESTIONS_BLOCKING", false),
			AnalyticsEnabled:    getEnvAsBool("PIPELINE_ANALYTICS_ENABLED", true),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "sunuchoix-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
