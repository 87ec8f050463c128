// Package config loads cafeledger.yaml, a .env file and environment
// overrides into one Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/logging"
)

const envPrefix = "CAFELEDGER_"

// Config is the top-level cafeledger.yaml configuration.
type Config struct {
	Cafe   CafeConfig          `yaml:"cafe"`
	DB     string              `yaml:"db"`
	Listen string              `yaml:"listen"`
	Server string              `yaml:"server"`
	Log    logging.Config      `yaml:"log"`
	Roles  ledger.AccountRoles `yaml:"roles,omitempty"`
	Cache  CacheConfig         `yaml:"cache"`
	Gist   GistConfig          `yaml:"gist"`
	AI     AIConfig            `yaml:"ai"`
}

type CafeConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// CacheConfig controls the report cache. Entries are keyed by book version;
// a zero TTL keeps them until the version moves.
type CacheConfig struct {
	ReportTTL time.Duration `yaml:"report_ttl"`
	Disabled  bool          `yaml:"disabled"`
}

// GistConfig points at the Gist holding the JSON book.
type GistConfig struct {
	ID       string `yaml:"id"`
	Token    string `yaml:"-"`
	Filename string `yaml:"filename"`
	BaseURL  string `yaml:"base_url"`
}

// AIConfig configures the commentary service.
type AIConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"-"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Default returns a Config with working defaults for a local install.
func Default() *Config {
	return &Config{
		Cafe:   CafeConfig{Name: "My Cafe", Currency: "IRR"},
		DB:     "cafeledger.db",
		Listen: ":8888",
		Server: "http://localhost:8888",
		Log:    logging.Config{Level: "info", Format: "console"},
		Cache:  CacheConfig{ReportTTL: 30 * time.Second},
		Gist: GistConfig{
			Filename: "cafeledger.json",
			BaseURL:  "https://api.github.com",
		},
		AI: AIConfig{
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
	}
}

// Load reads a .env file from the working directory if present, then the
// YAML file at path on top of Default, then environment overrides. An empty
// path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Roles = cfg.Roles.Merge(ledger.DefaultRoles())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file. Secrets are never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(envPrefix+"DB", &c.DB)
	str(envPrefix+"LISTEN", &c.Listen)
	str(envPrefix+"SERVER", &c.Server)
	str(envPrefix+"LOG_LEVEL", &c.Log.Level)
	str(envPrefix+"LOG_FORMAT", &c.Log.Format)
	str(envPrefix+"GIST_ID", &c.Gist.ID)
	str("GIST_TOKEN", &c.Gist.Token)
	str(envPrefix+"AI_URL", &c.AI.URL)
	str("AI_API_KEY", &c.AI.APIKey)

	if v, ok := lookup(envPrefix + "REPORT_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREPORT_TTL: %w", envPrefix, err)
		}
		c.Cache.ReportTTL = d
	}
	if v, ok := lookup(envPrefix + "REPORT_CACHE_DISABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREPORT_CACHE_DISABLED: %w", envPrefix, err)
		}
		c.Cache.Disabled = b
	}
	if v, ok := lookup(envPrefix + "AI_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sAI_MAX_RETRIES: %w", envPrefix, err)
		}
		c.AI.MaxRetries = n
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("config: db path is required")
	}
	if c.Cache.ReportTTL < 0 {
		return fmt.Errorf("config: cache.report_ttl must not be negative, got %s", c.Cache.ReportTTL)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("config: ai.max_retries must not be negative, got %d", c.AI.MaxRetries)
	}
	if c.Gist.ID != "" && c.Gist.Filename == "" {
		return errors.New("config: gist.filename is required when gist.id is set")
	}
	return nil
}

// GistEnabled reports whether sync is configured.
func (c *Config) GistEnabled() bool { return c.Gist.ID != "" }

// AIEnabled reports whether commentary is configured.
func (c *Config) AIEnabled() bool { return c.AI.URL != "" }
