// Package config loads the hub's YAML configuration. Environment variables
// override file values at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "gamehub/internal/log"
	"gamehub/internal/viewer"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Origin is prefixed to relative game paths in pop-out windows. Empty
	// means the origin of the page request.
	Origin string `yaml:"origin"`
}

type CatalogConfig struct {
	// URL of a remote catalog document. When empty the embedded one at
	// Path is served and loaded.
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "memory"
	Path   string `yaml:"path"`
}

type HubConfig struct {
	RecentLimit      int           `yaml:"recent_limit"`
	RecentPreview    int           `yaml:"recent_preview"`
	DescriptionLimit int           `yaml:"description_limit"`
	CardStagger      time.Duration `yaml:"card_stagger"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
}

type CarouselConfig struct {
	Period     time.Duration `yaml:"period"`
	Transition time.Duration `yaml:"transition"`
}

type ViewerConfig struct {
	PreloadDelay time.Duration `yaml:"preload_delay"`
	ClosingDelay time.Duration `yaml:"closing_delay"`
	Sandbox      []string      `yaml:"sandbox"`
}

type PopoutConfig struct {
	Cloak bool   `yaml:"cloak"`
	Title string `yaml:"title"`
	Icon  string `yaml:"icon"`
}

type LimitsConfig struct {
	ActionsPerSecond float64 `yaml:"actions_per_second"`
	Burst            int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	Hub      HubConfig      `yaml:"hub"`
	Carousel CarouselConfig `yaml:"carousel"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Popout   PopoutConfig   `yaml:"popout"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{Path: "assets/lists/gl.json"},
		Storage: StorageConfig{Driver: "sqlite", Path: "gamehub.db"},
		Hub: HubConfig{
			RecentLimit:      10,
			RecentPreview:    5,
			DescriptionLimit: 120,
			CardStagger:      50 * time.Millisecond,
			IdleTimeout:      30 * time.Minute,
			SweepInterval:    time.Minute,
		},
		Carousel: CarouselConfig{Period: 5 * time.Second, Transition: 300 * time.Millisecond},
		Viewer:   ViewerConfig{PreloadDelay: 300 * time.Millisecond, ClosingDelay: 300 * time.Millisecond},
		Popout: PopoutConfig{
			Title: viewer.DefaultCloak.Title,
			Icon:  viewer.DefaultCloak.Icon,
		},
		Limits:  LimitsConfig{ActionsPerSecond: 20, Burst: 40},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvPort        = "PORT"
	EnvAddr        = "GAMEHUB_ADDR"
	EnvCatalogURL  = "GAMEHUB_CATALOG_URL"
	EnvDB          = "GAMEHUB_DB"
	EnvPopoutCloak = "GAMEHUB_POPOUT_CLOAK"
	EnvLogLevel    = "GAMEHUB_LOG_LEVEL"
	EnvLogFormat   = "GAMEHUB_LOG_FORMAT"
	EnvLogSource   = "GAMEHUB_LOG_SOURCE"
	EnvLogFile     = "GAMEHUB_LOG_FILE"
)

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file; a missing file is an
// error only when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of sqlite, memory", c.Storage.Driver))
	}
	if c.Catalog.URL == "" && c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.url or catalog.path is required"))
	}
	if c.Carousel.Period <= 0 {
		errs = append(errs, errors.New("carousel.period must be positive"))
	}
	if c.Limits.ActionsPerSecond < 0 {
		errs = append(errs, errors.New("limits.actions_per_second must not be negative"))
	}
	return errors.Join(errs...)
}

// LogOptions converts the logging section.
func (c Config) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

func normalize(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Catalog.Path = strings.TrimPrefix(strings.TrimSpace(cfg.Catalog.Path), "/")
	if cfg.Hub.RecentPreview > cfg.Hub.RecentLimit && cfg.Hub.RecentLimit > 0 {
		cfg.Hub.RecentPreview = cfg.Hub.RecentLimit
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = ":" + v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogURL)); v != "" {
		cfg.Catalog.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		if strings.EqualFold(v, "memory") {
			cfg.Storage.Driver = "memory"
		} else {
			cfg.Storage.Driver = "sqlite"
			cfg.Storage.Path = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPopoutCloak)); v != "" {
		cfg.Popout.Cloak = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
