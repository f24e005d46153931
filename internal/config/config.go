// Package config holds the process-wide configuration for the translation
// service. It is loaded once at startup from a YAML file and environment
// variables and is read-only afterwards.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mistral  MistralConfig  `mapstructure:"mistral"`
	Security SecurityConfig `mapstructure:"security"`
	Upload   UploadConfig   `mapstructure:"upload"`
	OCR      OCRConfig      `mapstructure:"ocr"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RatePerMinute  int           `mapstructure:"rate_per_minute"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type MistralConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	KeyFile    string        `mapstructure:"key_file"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ChunkLimit int           `mapstructure:"chunk_limit"`
	// ChunkWorkers caps how many chunk translations run against the
	// backend at once.
	ChunkWorkers int `mapstructure:"chunk_workers"`
}

type SecurityConfig struct {
	MaxInputLength  int      `mapstructure:"max_input_length"`
	BlockedPatterns []string `mapstructure:"blocked_patterns"`
	// Risk-score thresholds for the model-based check. Scores above
	// HighRisk block the request, scores above MidRisk mark it as a
	// warning.
	MidRisk  float64 `mapstructure:"mid_risk"`
	HighRisk float64 `mapstructure:"high_risk"`
}

type UploadConfig struct {
	MaxFileSizeMB int `mapstructure:"max_file_size_mb"`
	// MinUsableLength is the number of characters below which a direct
	// text-layer extraction is considered unusable and OCR is attempted.
	MinUsableLength int `mapstructure:"min_usable_length"`
}

type OCRConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Languages []string `mapstructure:"languages"`
	DPI       float64  `mapstructure:"dpi"`
}

// DefaultBlockedPatterns are known prompt-manipulation phrases checked
// before any backend call is made.
var DefaultBlockedPatterns = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"disregard your instructions",
	"forget your instructions",
	"system prompt",
	"reveal your prompt",
	"show your instructions",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:8080",
		"http://127.0.0.1:8080",
	})
	v.SetDefault("server.rate_per_minute", 100)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("mistral.model", "mistral-small-latest")
	v.SetDefault("mistral.timeout", 60*time.Second)
	v.SetDefault("mistral.chunk_limit", 4000)
	v.SetDefault("mistral.chunk_workers", 4)

	v.SetDefault("security.max_input_length", 50000)
	v.SetDefault("security.blocked_patterns", DefaultBlockedPatterns)
	v.SetDefault("security.mid_risk", 0.4)
	v.SetDefault("security.high_risk", 0.7)

	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.min_usable_length", 50)

	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.dpi", 300.0)
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the LINGUARD_ prefix with
// underscores, e.g. LINGUARD_SERVER_PORT. The Mistral API key may also be
// supplied via MISTRAL_API_KEY or a key file for local development.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LINGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Mistral.APIKey == "" {
		cfg.Mistral.APIKey = resolveAPIKey(cfg.Mistral.KeyFile)
	}

	return &cfg, nil
}

// resolveAPIKey checks the MISTRAL_API_KEY environment variable first and
// falls back to reading a key file when one is configured.
func resolveAPIKey(keyFile string) string {
	if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
		return key
	}
	if keyFile == "" {
		return ""
	}
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Validate reports configuration values that would make the service
// unusable at runtime.
func (c *Config) Validate() error {
	if c.Mistral.APIKey == "" {
		return fmt.Errorf("mistral API key is not configured: set MISTRAL_API_KEY or mistral.key_file")
	}
	if c.Mistral.ChunkLimit <= 0 {
		return fmt.Errorf("mistral.chunk_limit must be positive")
	}
	if c.Security.MaxInputLength <= 0 {
		return fmt.Errorf("security.max_input_length must be positive")
	}
	if c.Security.MidRisk >= c.Security.HighRisk {
		return fmt.Errorf("security.mid_risk must be below security.high_risk")
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive")
	}
	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) * 1024 * 1024
}
