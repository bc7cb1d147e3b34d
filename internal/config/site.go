// Package config assembles the process configuration from environment
// variables and an optional YAML site file.
//
// Precedence, lowest first: built-in defaults, the YAML file named by
// SITE_CONFIG, environment variables. Secrets (the Notion token) are only
// read from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"knowledge-site/internal/handler/http/site"
	"knowledge-site/internal/infra/notion"
	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
	pkgconfig "knowledge-site/pkg/config"
)

// Required-variable errors. main exits 1 on any Load error.
var (
	ErrMissingToken      = errors.New("NOTION_TOKEN is required")
	ErrMissingDatabaseID = errors.New("NOTION_DATABASE_ID is required")
)

// SiteConfig is the complete runtime configuration.
type SiteConfig struct {
	Addr            string
	Version         string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	Log struct {
		Level  string
		Format string
	}

	Notion struct {
		Token             string
		DatabaseID        string
		BaseURL           string
		Version           string
		Timeout           time.Duration
		RequestsPerSecond float64
		Burst             int
		PageSize          int
	}

	// RevalidateWindow is how long a rendered page is served before it is
	// regenerated. Zero disables caching.
	RevalidateWindow time.Duration

	Site       site.Info
	Properties artUC.PropertyNames
	Location   *time.Location

	CSP struct {
		Enabled    bool
		ReportOnly bool
	}

	RateLimit struct {
		Enabled           bool
		RequestsPerSecond float64
		Burst             int
		TrustedProxies    []string
	}

	Tracing struct {
		Enabled     bool
		ServiceName string
	}
}

// fileConfig is the YAML site file layout.
//
//	site:
//	  title: Curated Knowledge
//	  owner: Rhythmcan
//	  repository_url: https://github.com/rhythmcan/knowledge-site
//	  base_url: https://knowledge.example.com
//	properties:
//	  title: Name
//	  published: Date
//	timezone: Asia/Tokyo
//	revalidate: 60s
type fileConfig struct {
	Site       site.Info           `yaml:"site"`
	Properties artUC.PropertyNames `yaml:"properties"`
	Timezone   string              `yaml:"timezone"`
	Revalidate string              `yaml:"revalidate"`
}

// Load builds the configuration. It returns an error when a required
// variable is missing, the site file cannot be read, or a value is invalid.
func Load() (*SiteConfig, error) {
	cfg := defaults()

	if path := pkgconfig.GetEnvString("SITE_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *SiteConfig {
	cfg := &SiteConfig{
		Addr:             ":8080",
		Version:          "dev",
		ShutdownTimeout:  10 * time.Second,
		MaxBodyBytes:     64 << 10,
		RevalidateWindow: revalidate.DefaultWindow,
		Site:             site.DefaultInfo(),
		Properties:       artUC.DefaultPropertyNames(),
		Location:         artUC.DefaultLocation,
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	nc := notion.DefaultConfig("")
	cfg.Notion.BaseURL = nc.BaseURL
	cfg.Notion.Version = nc.Version
	cfg.Notion.Timeout = nc.Timeout
	cfg.Notion.RequestsPerSecond = nc.RequestsPerSecond
	cfg.Notion.Burst = nc.Burst
	cfg.Notion.PageSize = 100

	cfg.CSP.Enabled = true

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 10
	cfg.RateLimit.Burst = 20

	cfg.Tracing.ServiceName = "knowledge-site"
	return cfg
}

// applyFile overlays the YAML site file. Empty fields keep their defaults.
func (c *SiteConfig) applyFile(path string) error {
	// #nosec G304 -- path comes from the operator's environment, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read site config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse site config %s: %w", path, err)
	}

	mergeInfo(&c.Site, fc.Site)
	mergeProperties(&c.Properties, fc.Properties)

	if fc.Timezone != "" {
		loc, err := LoadLocation(fc.Timezone)
		if err != nil {
			return err
		}
		c.Location = loc
	}
	if fc.Revalidate != "" {
		d, err := time.ParseDuration(fc.Revalidate)
		if err != nil {
			return fmt.Errorf("invalid revalidate %q in site config: %w", fc.Revalidate, err)
		}
		c.RevalidateWindow = d
	}
	return nil
}

func (c *SiteConfig) applyEnv() error {
	c.Notion.Token = pkgconfig.GetEnvString("NOTION_TOKEN", "")
	c.Notion.DatabaseID = pkgconfig.GetEnvString("NOTION_DATABASE_ID", "")
	c.Notion.BaseURL = pkgconfig.GetEnvString("NOTION_API_BASE_URL", c.Notion.BaseURL)
	c.Notion.Version = pkgconfig.GetEnvString("NOTION_API_VERSION", c.Notion.Version)
	c.Notion.Timeout = pkgconfig.GetEnvDuration("NOTION_TIMEOUT", c.Notion.Timeout)
	c.Notion.RequestsPerSecond = pkgconfig.GetEnvFloat("NOTION_RATE_LIMIT", c.Notion.RequestsPerSecond)
	c.Notion.Burst = pkgconfig.GetEnvInt("NOTION_RATE_BURST", c.Notion.Burst)
	c.Notion.PageSize = pkgconfig.GetEnvInt("NOTION_PAGE_SIZE", c.Notion.PageSize)

	if port := pkgconfig.GetEnvString("PORT", ""); port != "" {
		c.Addr = ":" + port
	}
	c.Addr = pkgconfig.GetEnvString("ADDR", c.Addr)
	c.Version = pkgconfig.GetEnvString("APP_VERSION", c.Version)
	c.ShutdownTimeout = pkgconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.Log.Level = pkgconfig.GetEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = pkgconfig.GetEnvString("LOG_FORMAT", c.Log.Format)

	c.RevalidateWindow = pkgconfig.GetEnvDuration("REVALIDATE_WINDOW", c.RevalidateWindow)
	c.Site.BaseURL = strings.TrimRight(pkgconfig.GetEnvString("SITE_BASE_URL", c.Site.BaseURL), "/")
	c.Site.Title = pkgconfig.GetEnvString("SITE_TITLE", c.Site.Title)
	c.Site.RepositoryURL = pkgconfig.GetEnvString("SITE_REPOSITORY_URL", c.Site.RepositoryURL)

	if tz := pkgconfig.GetEnvString("SITE_TIMEZONE", ""); tz != "" {
		loc, err := LoadLocation(tz)
		if err != nil {
			return err
		}
		c.Location = loc
	}

	c.CSP.Enabled = pkgconfig.GetEnvBool("CSP_ENABLED", c.CSP.Enabled)
	c.CSP.ReportOnly = pkgconfig.GetEnvBool("CSP_REPORT_ONLY", c.CSP.ReportOnly)

	c.RateLimit.Enabled = pkgconfig.GetEnvBool("RATELIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerSecond = pkgconfig.GetEnvFloat("RATELIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = pkgconfig.GetEnvInt("RATELIMIT_BURST", c.RateLimit.Burst)
	c.RateLimit.TrustedProxies = pkgconfig.GetEnvStringList("TRUSTED_PROXIES", c.RateLimit.TrustedProxies)

	c.Tracing.Enabled = pkgconfig.GetEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.ServiceName = pkgconfig.GetEnvString("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
	return nil
}

// Validate checks required values and ranges.
func (c *SiteConfig) Validate() error {
	if c.Notion.Token == "" {
		return ErrMissingToken
	}
	if c.Notion.DatabaseID == "" {
		return ErrMissingDatabaseID
	}
	if err := pkgconfig.ValidateNonNegativeDuration(c.RevalidateWindow); err != nil {
		return fmt.Errorf("REVALIDATE_WINDOW: %w", err)
	}
	if err := pkgconfig.ValidateDurationRange(c.Notion.Timeout, time.Second, 2*time.Minute); err != nil {
		return fmt.Errorf("NOTION_TIMEOUT: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	if c.Notion.PageSize < 1 || c.Notion.PageSize > 100 {
		return fmt.Errorf("NOTION_PAGE_SIZE must be between 1 and 100, got %d", c.Notion.PageSize)
	}
	if c.Notion.RequestsPerSecond < 0 {
		return fmt.Errorf("NOTION_RATE_LIMIT must be non-negative, got %v", c.Notion.RequestsPerSecond)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATELIMIT_RPS must be positive, got %v", c.RateLimit.RequestsPerSecond)
	}
	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("SITE_BASE_URL must be an absolute http(s) URL, got %q", c.Site.BaseURL)
		}
	}
	return nil
}

// NotionClientConfig returns the settings for notion.NewClient.
func (c *SiteConfig) NotionClientConfig() notion.Config {
	return notion.Config{
		Token:             c.Notion.Token,
		BaseURL:           c.Notion.BaseURL,
		Version:           c.Notion.Version,
		Timeout:           c.Notion.Timeout,
		RequestsPerSecond: c.Notion.RequestsPerSecond,
		Burst:             c.Notion.Burst,
	}
}

// LoadLocation resolves a timezone name. "Asia/Tokyo" maps to the built-in
// fixed zone so the binary works without tzdata.
func LoadLocation(name string) (*time.Location, error) {
	if name == artUC.DefaultLocation.String() {
		return artUC.DefaultLocation, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func mergeInfo(dst *site.Info, src site.Info) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Owner != "" {
		dst.Owner = src.Owner
	}
	if src.RepositoryURL != "" {
		dst.RepositoryURL = src.RepositoryURL
	}
	if src.BaseURL != "" {
		dst.BaseURL = strings.TrimRight(src.BaseURL, "/")
	}
}

func mergeProperties(dst *artUC.PropertyNames, src artUC.PropertyNames) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.Summary != "" {
		dst.Summary = src.Summary
	}
	if src.Published != "" {
		dst.Published = src.Published
	}
}
