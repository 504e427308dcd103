// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Defaults used when neither env nor flags override them
// --------------------------------------------------------------------------

const (
	DefaultSourceURL        = "https://www.soccerstats.com/latest.asp?league=england"
	DefaultMinTeamsExpected = 8
	DefaultRequestTimeout   = 20 * time.Second
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	DefaultOutputDir        = "data"
	DefaultAliasFile        = "teams_aliases.json"
)

// Table names for the optional Postgres mirror.
const (
	SnapshotsTable = "standings_snapshots"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Extraction run
	SourceURL        string            `validate:"required,url"`
	MinTeamsExpected int               `validate:"gt=0"`
	RequestHeaders   map[string]string
	RequestTimeout   time.Duration `validate:"gt=0"`
	OutputDir        string        `validate:"required"`
	AliasFile        string
	ExitOnFailure    bool

	// Database (optional mirror; empty disables it)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int    `validate:"gte=0,lte=65535"`
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
}

// Default returns the configuration the scraper uses when nothing is overridden.
func Default() *Config {
	return &Config{
		SourceURL:        DefaultSourceURL,
		MinTeamsExpected: DefaultMinTeamsExpected,
		RequestHeaders:   map[string]string{"User-Agent": DefaultUserAgent},
		RequestTimeout:   DefaultRequestTimeout,
		OutputDir:        DefaultOutputDir,
		AliasFile:        DefaultAliasFile,

		DBPoolMinConns: 1,
		DBPoolMaxConns: 4,
		DBPoolMaxLife:  30 * time.Minute,

		APIHost:     "0.0.0.0",
		APIPort:     8000,
		Environment: "development",

		CORSAllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},

		RateLimitEnabled:  true,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,

		CacheEnabled: true,
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	d := Default()

	cfg := &Config{
		SourceURL:        envOr("SOURCE_URL", d.SourceURL),
		MinTeamsExpected: envInt("MIN_TEAMS_EXPECTED", d.MinTeamsExpected),
		RequestHeaders: map[string]string{
			"User-Agent": envOr("REQUEST_USER_AGENT", DefaultUserAgent),
		},
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_SECONDS", int(d.RequestTimeout/time.Second))) * time.Second,
		OutputDir:      envOr("OUTPUT_DIR", d.OutputDir),
		AliasFile:      envOr("ALIAS_FILE", d.AliasFile),
		ExitOnFailure:  envBool("EXIT_ON_FAILURE", d.ExitOnFailure),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", d.DBPoolMinConns),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", d.DBPoolMaxConns),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", d.APIHost),
		APIPort:     envInt("API_PORT", envInt("PORT", d.APIPort)),
		Environment: envOr("ENVIRONMENT", d.Environment),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", d.CORSAllowOrigins),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", d.RateLimitEnabled),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", d.RateLimitRequests),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", d.CacheEnabled),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// envNames maps validated fields to the variable that sets them.
var envNames = map[string]string{
	"SourceURL":        "SOURCE_URL",
	"MinTeamsExpected": "MIN_TEAMS_EXPECTED",
	"RequestTimeout":   "REQUEST_TIMEOUT_SECONDS",
	"OutputDir":        "OUTPUT_DIR",
	"APIPort":          "API_PORT",
}

// Validate checks the options an extraction run cannot work without.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%s: value %v fails %q", envNames[f.Field()], f.Value(), f.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	u, err := url.Parse(c.SourceURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("SOURCE_URL: %q has no host", c.SourceURL)
	}
	return nil
}

// League returns the league identifier encoded in the source URL: the value
// of its "league" query parameter, or the raw query when that is absent.
func (c *Config) League() string {
	u, err := url.Parse(c.SourceURL)
	if err != nil {
		return ""
	}
	if league := u.Query().Get("league"); league != "" {
		return league
	}
	return u.RawQuery
}

// MirrorEnabled reports whether successful results are copied to Postgres.
func (c *Config) MirrorEnabled() bool {
	return c.DatabaseURL != ""
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
