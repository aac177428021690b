// Package docserve is the HTTP surface of the document service: upload
// handling, processor dispatch, JSON envelopes, and the processing event log.
package docserve

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docmill/docmill/procpipe"
)

// Config holds the full service configuration.
type Config struct {
	Listen         string `yaml:"listen"`
	UploadDir      string `yaml:"upload_dir"`
	ProcessedDir   string `yaml:"processed_dir"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
	CleanupUploads *bool  `yaml:"cleanup_uploads"`
	EventsDB       string `yaml:"events_db"`

	Vision VisionConfig `yaml:"vision"`

	Processing procpipe.Config `yaml:"processing"`
}

// VisionConfig configures the remote vision-language endpoint.
type VisionConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8086",
		UploadDir:    "uploads",
		ProcessedDir: "processed",
		MaxUploadMB:  100,
		EventsDB:     "db/events.db",
		Vision: VisionConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:          "gemini-2.5-pro",
			TimeoutSeconds: 300,
		},
	}
}

// LoadConfig reads and parses a YAML config file, merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides sensitive or deploy-specific fields from the
// environment. Called after LoadConfig so env wins over the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DOCMILL_API_KEY"); v != "" {
		c.Vision.APIKey = v
	}
	if v := os.Getenv("DOCMILL_API_BASE_URL"); v != "" {
		c.Vision.BaseURL = v
	}
	if v := os.Getenv("DOCMILL_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("DOCMILL_LISTEN"); v != "" {
		c.Listen = v
	}
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if c.Vision.BaseURL == "" {
		return fmt.Errorf("vision.base_url is required")
	}
	if c.Vision.TimeoutSeconds < 0 {
		return fmt.Errorf("vision.timeout_seconds must be >= 0")
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

// VisionTimeout returns the remote call timeout.
func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.Vision.TimeoutSeconds) * time.Second
}

// CleanupEnabled reports whether uploads are deleted after processing.
// Defaults to true when unset.
func (c *Config) CleanupEnabled() bool {
	return c.CleanupUploads == nil || *c.CleanupUploads
}
