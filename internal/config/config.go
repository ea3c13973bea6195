package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/bookstorectl/internal/util"
)

// Defaults for the original ebookstore deployment.
const (
	DefaultBaseURL          = "https://ebookstore-hqlf.onrender.com/api"
	DefaultViewTemplate     = "https://res.cloudinary.com/dafyhvdns/image/upload/{ref}"
	DefaultDownloadTemplate = "https://res.cloudinary.com/dafyhvdns/raw/upload/fl_attachment/{ref}"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bookstorectl", "config.yml")
}

// Path returns the config path in effect: explicit, then
// BOOKSTORECTL_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("BOOKSTORECTL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config from disk, .env and the environment. A missing
// config file is not an error; defaults point at the public deployment.
func Load(explicitPath string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOOKSTORECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(Path(explicitPath))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Download.Dir = ExpandHome(cfg.Download.Dir)
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return &cfg, nil
}

// Default returns the configuration Load produces with no file or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Download.Dir = ExpandHome(cfg.Download.Dir)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", 2*time.Minute)
	v.SetDefault("api.rate_limit", 5.0)
	v.SetDefault("api.retries", 2)
	v.SetDefault("api.routes.list", "books")
	v.SetDefault("api.routes.create", "books")
	v.SetDefault("api.routes.delete", "books/{id}")
	v.SetDefault("api.routes.access_url", "books/{id}/access-url")
	v.SetDefault("api.routes.stream", "books/{id}/stream")
	v.SetDefault("objectstore.view_template", DefaultViewTemplate)
	v.SetDefault("objectstore.download_template", DefaultDownloadTemplate)
	v.SetDefault("resolver.strategy", StrategyProbe)
	v.SetDefault("resolver.stream_view", false)
	v.SetDefault("upload.allowed_formats", []string{"pdf", "epub", "doc", "docx"})
	v.SetDefault("download.dir", "~/Downloads")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Save writes the config as YAML to path.
func Save(cfg *Config, path string) error {
	if err := util.EnsureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
