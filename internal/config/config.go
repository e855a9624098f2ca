package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Slicer   SlicerConfig   `yaml:"slicer"`
	Queue    QueueConfig    `yaml:"queue"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StorageConfig struct {
	UploadDir         string   `yaml:"upload_dir"`
	MaxUploadMB       int64    `yaml:"max_upload_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type SlicerConfig struct {
	Binary       string        `yaml:"binary"`
	Profile      string        `yaml:"profile"`
	MaxDimension float64       `yaml:"max_dimension_mm"`
	Timeout      time.Duration `yaml:"timeout"`
}

type QueueConfig struct {
	BufferSize    int           `yaml:"buffer_size"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	RetentionDays int           `yaml:"retention_days"`
}

type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			UploadDir:         "./data/uploads",
			MaxUploadMB:       50,
			AllowedExtensions: []string{".stl", ".3mf"},
		},
		Database: DatabaseConfig{
			Path: "./data/printquote.db",
		},
		Catalog: CatalogConfig{
			Path: "./data/materials.json",
		},
		Slicer: SlicerConfig{
			Binary:       "prusa-slicer",
			Profile:      "./profiles/x1c.ini",
			MaxDimension: 256.0,
			Timeout:      5 * time.Minute,
		},
		Queue: QueueConfig{
			BufferSize:    100,
			SweepInterval: 2 * time.Second,
			RetentionDays: 30,
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML config at configPath on top of the compiled-in defaults,
// then applies environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PRINTQUOTE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PRINTQUOTE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PRINTQUOTE_UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("PRINTQUOTE_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("PRINTQUOTE_SLICER_BIN"); v != "" {
		c.Slicer.Binary = v
	}
	if v := os.Getenv("PRINTQUOTE_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("PRINTQUOTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Storage.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}
	for _, ext := range c.Storage.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("allowed extension must start with a dot: %s", ext)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}

	if c.Slicer.Binary == "" {
		return fmt.Errorf("slicer binary is required")
	}
	if c.Slicer.MaxDimension <= 0 {
		return fmt.Errorf("slicer max dimension must be positive")
	}
	if c.Slicer.Timeout <= 0 {
		return fmt.Errorf("slicer timeout must be positive")
	}

	if c.Queue.BufferSize < 1 {
		return fmt.Errorf("queue buffer size must be at least 1")
	}
	if c.Queue.SweepInterval <= 0 {
		return fmt.Errorf("queue sweep interval must be positive")
	}
	if c.Queue.RetentionDays < 0 {
		return fmt.Errorf("queue retention days must be non-negative")
	}

	if c.Webhook.URL != "" && c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *StorageConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// ExtensionAllowed reports whether the (lowercased, dotted) extension is in the
// upload whitelist.
func (c *StorageConfig) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
