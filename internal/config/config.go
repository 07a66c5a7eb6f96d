// Package config loads service settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Port             string        `yaml:"port"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	DatabasePath     string        `yaml:"database_path"`
	CachePath        string        `yaml:"cache_path"`
	JWTSecret        string        `yaml:"jwt_secret"`
	SessionSecret    string        `yaml:"session_secret"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	UniDocLicenseKey string        `yaml:"unidoc_license_key"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	OCR              OCRConfig     `yaml:"ocr"`
	Log              LogConfig     `yaml:"log"`
}

// OCRConfig configures the Tesseract engine and scanned PDF handling.
type OCRConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Timeout     time.Duration `yaml:"timeout"`
	ScannedPDFs bool          `yaml:"scanned_pdfs"`
	DPI         float64       `yaml:"dpi"`
	MaxPages    int           `yaml:"max_pages"`

	// MaxConcurrent caps engine calls in flight, including calls whose
	// request already timed out but which the engine has not yet returned.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Development bool `yaml:"development"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Port:           "8080",
		MaxUploadBytes: 50 * 1024 * 1024,
		DatabasePath:   "study.db",
		CachePath:      "extract-cache.db",
		SessionTTL:     time.Hour,
		AllowedOrigins: []string{"http://localhost:3000"},
		OCR: OCRConfig{
			Enabled:       true,
			Timeout:       60 * time.Second,
			ScannedPDFs:   true,
			DPI:           300,
			MaxPages:      20,
			MaxConcurrent: 2,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (or CONFIG_FILE
// when path is empty) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.CachePath, "CACHE_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.SessionSecret, "SESSION_SECRET")
	setString(&c.UniDocLicenseKey, "UNIDOC_LICENSE_KEY")

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	if v, ok := os.LookupEnv("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := os.LookupEnv("OCR_MAX_CONCURRENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OCR_MAX_CONCURRENT: %w", err)
		}
		c.OCR.MaxConcurrent = n
	}
	if v, ok := os.LookupEnv("OCR_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("OCR_TIMEOUT: %w", err)
		}
		c.OCR.Timeout = d
	}
	if v, ok := os.LookupEnv("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}

	for key, dst := range map[string]*bool{
		"OCR_ENABLED":      &c.OCR.Enabled,
		"OCR_SCANNED_PDFS": &c.OCR.ScannedPDFs,
		"LOG_DEVELOPMENT":  &c.Log.Development,
	} {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0")
	}
	if c.OCR.Timeout < 0 {
		return fmt.Errorf("ocr.timeout must not be negative")
	}
	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed_origins: %q must be \"*\" or start with http:// or https://", origin)
		}
	}
	if c.OCR.Enabled {
		if c.OCR.DPI <= 0 {
			return fmt.Errorf("ocr.dpi must be > 0")
		}
		if c.OCR.MaxPages <= 0 {
			return fmt.Errorf("ocr.max_pages must be > 0")
		}
		if c.OCR.MaxConcurrent <= 0 {
			return fmt.Errorf("ocr.max_concurrent must be > 0")
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
