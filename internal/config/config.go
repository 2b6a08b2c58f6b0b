package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env
	Verbose bool

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string

	// Server
	ApiPort        string
	AllowedOrigins []string

	// Listings
	DefaultPageSize int
	MaxPageSize     int

	// Uploads
	UploadRateLimitPerMinute int
	UploadMaxBase64Bytes     int
	UploadFolderRoot         string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	AwsS3Endpoint      string
	MediaBaseURL       string
	ImageMaxDimension  int
	ImageMaxSizeMB     int
	ThumbnailDimension int
}

// StorageConfigured reports whether uploads can be served at all.
func (c *Config) StorageConfigured() bool {
	return c.AwsS3Bucket != "" && c.AwsRegion != ""
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "campus_connect")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"))
	cfg.UploadFolderRoot = getEnv("UPLOAD_FOLDER_ROOT", "assignx")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.AwsS3Endpoint = getEnv("AWS_S3_ENDPOINT", "")
	cfg.MediaBaseURL = strings.TrimRight(getEnv("MEDIA_BASE_URL", ""), "/")

	if cfg.Verbose, err = strconv.ParseBool(getEnv("VERBOSE", "false")); err != nil {
		return nil, fmt.Errorf("invalid VERBOSE: %w", err)
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}

	if cfg.DefaultPageSize, err = getInt("DEFAULT_PAGE_SIZE", "50"); err != nil {
		return nil, err
	}
	if cfg.MaxPageSize, err = getInt("MAX_PAGE_SIZE", "200"); err != nil {
		return nil, err
	}
	if cfg.UploadRateLimitPerMinute, err = getInt("UPLOAD_RATE_LIMIT_PER_MINUTE", "10"); err != nil {
		return nil, err
	}
	// ~5MB of binary once decoded.
	if cfg.UploadMaxBase64Bytes, err = getInt("UPLOAD_MAX_BASE64_BYTES", "6850000"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxDimension, err = getInt("IMAGE_MAX_DIMENSION", "8192"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxSizeMB, err = getInt("IMAGE_MAX_SIZE_MB", "10"); err != nil {
		return nil, err
	}
	if cfg.ThumbnailDimension, err = getInt("THUMBNAIL_DIMENSION", "400"); err != nil {
		return nil, err
	}

	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("invalid DEFAULT_PAGE_SIZE %d: must be in 1..%d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	if cfg.UploadRateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("invalid UPLOAD_RATE_LIMIT_PER_MINUTE %d: must be positive", cfg.UploadRateLimitPerMinute)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
