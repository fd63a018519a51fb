package config

import (
	_ "embed"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed retention.yaml
var retentionYAML []byte

type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Extractor ExtractorConfig
	Retention RetentionConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	Endpoint  string // S3-compatible endpoint URL
	Region    string // defaults to us-east-1
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string // public base URL for serving stored photos (e.g. CDN domain)
}

type ExtractorConfig struct {
	URL string // face descriptor service, defaults to http://localhost:8000
	Dim int    // descriptor dimension, defaults to 128
}

// RetentionConfig holds the enumerated retention windows photographers can
// choose from. Loaded from the embedded retention.yaml.
type RetentionConfig struct {
	AllowedDays []int `yaml:"allowed_days"`
}

// Allows reports whether the given day count is a permitted retention window.
func (c *RetentionConfig) Allows(days int) bool {
	return slices.Contains(c.AllowedDays, days)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var retention RetentionConfig
	if err := yaml.Unmarshal(retentionYAML, &retention); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded retention.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			Region:    envString("STORAGE_REGION", "us-east-1"),
			Bucket:    os.Getenv("STORAGE_BUCKET"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			PublicURL: os.Getenv("STORAGE_PUBLIC_URL"),
		},
		Extractor: ExtractorConfig{
			URL: envString("EXTRACTOR_URL", "http://localhost:8000"),
			Dim: envInt("EXTRACTOR_DIM", 128),
		},
		Retention: retention,
	}
}
