package config

import (
	"fmt"
	"strings"
	"time"
)

// Resolver strategies.
const (
	StrategyProbe    = "probe"
	StrategyBrokered = "brokered"
)

// RefPlaceholder is substituted with the object reference in URL templates.
const RefPlaceholder = "{ref}"

// Config is the top-level bookstorectl configuration.
type Config struct {
	API         APIConfig         `mapstructure:"api" yaml:"api"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore" yaml:"objectstore"`
	Resolver    ResolverConfig    `mapstructure:"resolver" yaml:"resolver"`
	Upload      UploadConfig      `mapstructure:"upload" yaml:"upload"`
	Download    DownloadConfig    `mapstructure:"download" yaml:"download"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// APIConfig holds catalog service connection settings.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	Retries   int           `mapstructure:"retries" yaml:"retries"`
	Routes    RoutesConfig  `mapstructure:"routes" yaml:"routes"`
}

// RoutesConfig holds endpoint paths relative to the base URL. "{id}" is
// replaced with the escaped book ID.
type RoutesConfig struct {
	List      string `mapstructure:"list" yaml:"list"`
	Create    string `mapstructure:"create" yaml:"create"`
	Delete    string `mapstructure:"delete" yaml:"delete"`
	AccessURL string `mapstructure:"access_url" yaml:"access_url"`
	Stream    string `mapstructure:"stream" yaml:"stream"`
}

// ObjectStoreConfig holds the URL templates used by the probe strategy.
type ObjectStoreConfig struct {
	ViewTemplate     string `mapstructure:"view_template" yaml:"view_template"`
	DownloadTemplate string `mapstructure:"download_template" yaml:"download_template"`
}

// ResolverConfig selects how view/download targets are resolved.
type ResolverConfig struct {
	Strategy   string `mapstructure:"strategy" yaml:"strategy"` // "probe" or "brokered"
	StreamView bool   `mapstructure:"stream_view" yaml:"stream_view"`
}

// UploadConfig holds client-side upload checks.
type UploadConfig struct {
	AllowedFormats []string `mapstructure:"allowed_formats" yaml:"allowed_formats"`
}

// DownloadConfig holds where downloads land.
type DownloadConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Validate reports configuration that would make every operation fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Resolver.Strategy {
	case StrategyProbe:
		if !strings.Contains(c.ObjectStore.ViewTemplate, RefPlaceholder) {
			return fmt.Errorf("objectstore.view_template must contain %s", RefPlaceholder)
		}
		if !strings.Contains(c.ObjectStore.DownloadTemplate, RefPlaceholder) {
			return fmt.Errorf("objectstore.download_template must contain %s", RefPlaceholder)
		}
	case StrategyBrokered:
	default:
		return fmt.Errorf("resolver.strategy %q is not one of %s, %s",
			c.Resolver.Strategy, StrategyProbe, StrategyBrokered)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative")
	}
	return nil
}

// EffectiveUserAgent returns the configured User-Agent or a default tagged
// with version.
func (a *APIConfig) EffectiveUserAgent(version string) string {
	if a.UserAgent != "" {
		return a.UserAgent
	}
	return "bookstorectl/" + version
}
