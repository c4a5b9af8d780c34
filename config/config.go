package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	// ListingsSource is "http" or "postgres".
	ListingsSource string
	ListingsURL    string
	FetchTimeout   time.Duration
	MaxRetries     int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	SliderMaxPrice int
	SliderMaxSize  int

	DefaultLanguage string
	Languages       []string
	TranslationsDir string

	MapTileURL     string
	MapAttribution string
	MapCenterLat   float64
	MapCenterLng   float64
	MapZoom        int
	MapClustering  bool
	MapResizeDelay time.Duration

	SessionIdleTimeout time.Duration
	MaxSessions        int

	LogLevel  string
	LogFormat string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		HTTPAddr: v.GetString("HTTP_ADDR"),

		ListingsSource: strings.ToLower(v.GetString("LISTINGS_SOURCE")),
		ListingsURL:    v.GetString("LISTINGS_URL"),
		FetchTimeout:   v.GetDuration("FETCH_TIMEOUT"),
		MaxRetries:     v.GetInt("MAX_RETRIES"),

		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetString("POSTGRES_PORT"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		SliderMaxPrice: v.GetInt("SLIDER_MAX_PRICE"),
		SliderMaxSize:  v.GetInt("SLIDER_MAX_SIZE"),

		DefaultLanguage: v.GetString("DEFAULT_LANGUAGE"),
		Languages:       splitList(v.GetString("LANGUAGES")),
		TranslationsDir: v.GetString("TRANSLATIONS_DIR"),

		MapTileURL:     v.GetString("MAP_TILE_URL"),
		MapAttribution: v.GetString("MAP_ATTRIBUTION"),
		MapCenterLat:   v.GetFloat64("MAP_CENTER_LAT"),
		MapCenterLng:   v.GetFloat64("MAP_CENTER_LNG"),
		MapZoom:        v.GetInt("MAP_ZOOM"),
		MapClustering:  v.GetBool("MAP_CLUSTERING"),
		MapResizeDelay: v.GetDuration("MAP_RESIZE_DELAY"),

		SessionIdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		MaxSessions:        v.GetInt("MAX_SESSIONS"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		ChromeBin: v.GetString("CHROME_BIN"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("LISTINGS_SOURCE", "postgres")
	v.SetDefault("LISTINGS_URL", "http://localhost:8000/api/listings")
	v.SetDefault("FETCH_TIMEOUT", "10s")
	v.SetDefault("MAX_RETRIES", 3)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "crous")
	v.SetDefault("POSTGRES_PASSWORD", "crous123")
	v.SetDefault("POSTGRES_DB", "crous_x")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("SLIDER_MAX_PRICE", 2000)
	v.SetDefault("SLIDER_MAX_SIZE", 250)

	v.SetDefault("DEFAULT_LANGUAGE", "fr")
	v.SetDefault("LANGUAGES", "fr,en")
	v.SetDefault("TRANSLATIONS_DIR", "")

	v.SetDefault("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("MAP_ATTRIBUTION", "&copy; OpenStreetMap contributors")
	v.SetDefault("MAP_CENTER_LAT", 48.8566)
	v.SetDefault("MAP_CENTER_LNG", 2.3522)
	v.SetDefault("MAP_ZOOM", 12)
	v.SetDefault("MAP_CLUSTERING", true)
	v.SetDefault("MAP_RESIZE_DELAY", "50ms")

	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("MAX_SESSIONS", 500)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("CHROME_BIN", "")
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
