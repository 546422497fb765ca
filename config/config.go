package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Lookup  LookupConfig
	Scanner ScannerConfig
	Catalog CatalogConfig
	Log     LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LookupConfig holds the remote product lookup configuration.
// An empty APIKey runs the service in catalog-only mode.
type LookupConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinBarcodeLength int           `mapstructure:"min_barcode_length"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	RateBurst        int           `mapstructure:"rate_burst"`
}

// ScannerConfig holds image preprocessing and decoding parameters
type ScannerConfig struct {
	BlurKernel      int      `mapstructure:"blur_kernel"`
	BlockSize       int      `mapstructure:"block_size"`
	ThresholdOffset float64  `mapstructure:"threshold_offset"`
	MaxPixels       int      `mapstructure:"max_pixels"`
	TryHarder       bool     `mapstructure:"try_harder"`
	Formats         []string `mapstructure:"formats"`
}

// CatalogConfig points at an optional file of extra catalog entries
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/productscan/")

	// PRODUCTSCAN_LOOKUP_API_KEY -> lookup.api_key
	v.SetEnvPrefix("PRODUCTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.max_upload_bytes", 16<<20)
	v.SetDefault("server.request_timeout", "30s")

	// Lookup defaults
	v.SetDefault("lookup.api_key", "")
	v.SetDefault("lookup.base_url", "https://api.barcodelookup.com")
	v.SetDefault("lookup.timeout", "5s")
	v.SetDefault("lookup.min_barcode_length", 8)
	v.SetDefault("lookup.rate_limit", 0)
	v.SetDefault("lookup.rate_burst", 1)

	// Scanner defaults
	v.SetDefault("scanner.blur_kernel", 5)
	v.SetDefault("scanner.block_size", 11)
	v.SetDefault("scanner.threshold_offset", 2.0)
	v.SetDefault("scanner.max_pixels", 24_000_000)
	v.SetDefault("scanner.try_harder", true)
	v.SetDefault("scanner.formats", []string{})

	v.SetDefault("catalog.file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max_upload_bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	if config.Lookup.APIKey != "" && config.Lookup.BaseURL == "" {
		return fmt.Errorf("lookup base_url is required when an API key is set")
	}

	if config.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive, got: %s", config.Lookup.Timeout)
	}

	if config.Lookup.MinBarcodeLength < 1 {
		return fmt.Errorf("lookup min_barcode_length must be at least 1, got: %d", config.Lookup.MinBarcodeLength)
	}

	if config.Lookup.RateLimit < 0 {
		return fmt.Errorf("lookup rate_limit cannot be negative, got: %v", config.Lookup.RateLimit)
	}

	if k := config.Scanner.BlurKernel; k < 3 || k%2 == 0 {
		return fmt.Errorf("scanner blur_kernel must be an odd number >= 3, got: %d", k)
	}

	if b := config.Scanner.BlockSize; b < 3 || b%2 == 0 {
		return fmt.Errorf("scanner block_size must be an odd number >= 3, got: %d", b)
	}

	if config.Scanner.MaxPixels <= 0 {
		return fmt.Errorf("scanner max_pixels must be positive, got: %d", config.Scanner.MaxPixels)
	}

	switch strings.ToLower(config.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be 'json' or 'text', got: %s", config.Log.Format)
	}

	return nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}
