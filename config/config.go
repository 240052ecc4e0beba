package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxImageSlots is the most images a product may carry
const MaxImageSlots = 3

// Config application configuration
type Config struct {
	AppEnv              string
	HTTPAddr            string
	CatalogPath         string
	ImageDir            string
	SeedPath            string // empty means the embedded seed table
	ActivityDBPath      string
	MaxImagesPerProduct int
	MaxUploadBytes      int64
	SessionTTL          time.Duration
	TelegramToken       string // bot disabled when empty
	GeminiAPIKey        string // description suggestions disabled when empty
	GeminiModel         string
	LogLevel            string
	LogEncoding         string
}

// Load reads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8501"),
		CatalogPath:    getEnv("CATALOG_CSV_PATH", filepath.Join("datasets", "produtos.csv")),
		ImageDir:       getEnv("IMAGE_DIR", "imagens_produtos"),
		SeedPath:       getEnv("SEED_PATH", ""),
		ActivityDBPath: getEnv("ACTIVITY_DB_PATH", filepath.Join("data", "activity.db")),
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogEncoding:    getEnv("LOG_ENCODING", "json"),
	}

	var err error
	if config.MaxImagesPerProduct, err = getEnvInt("MAX_IMAGES_PER_PRODUCT", MaxImageSlots); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	config.MaxUploadBytes = int64(maxUpload)

	ttlHours, err := getEnvInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	config.SessionTTL = time.Duration(ttlHours) * time.Hour

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("CATALOG_CSV_PATH is empty")
	}
	if strings.TrimSpace(c.ImageDir) == "" {
		return fmt.Errorf("IMAGE_DIR is empty")
	}
	if c.MaxImagesPerProduct < 1 || c.MaxImagesPerProduct > MaxImageSlots {
		return fmt.Errorf("MAX_IMAGES_PER_PRODUCT must be between 1 and %d, got %d", MaxImageSlots, c.MaxImagesPerProduct)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must not be negative")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV selects development defaults
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// EnsureDirs creates the catalog and image directories
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{filepath.Dir(c.CatalogPath), c.ImageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %v", key, err)
	}
	return parsed, nil
}
