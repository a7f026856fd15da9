// Package config loads run settings from an optional YAML file, a .env file
// and the process environment, in increasing order of precedence.
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

	"github.com/signalsfoundry/spade/core"
	"github.com/signalsfoundry/spade/internal/observability"
	"github.com/signalsfoundry/spade/internal/source/discos"
	"github.com/signalsfoundry/spade/internal/source/spacetrack"
)

// Config is the full set of run settings.
type Config struct {
	DataDir    string                      `yaml:"data_dir"`
	Sources    []string                    `yaml:"sources"`
	SpaceTrack SpaceTrackConfig            `yaml:"space_track"`
	Discos     DiscosConfig                `yaml:"discos"`
	HTTP       HTTPConfig                  `yaml:"http"`
	Cache      CacheConfig                 `yaml:"cache"`
	Metrics    MetricsConfig               `yaml:"metrics"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
}

type SpaceTrackConfig struct {
	AuthURL     string        `yaml:"auth_url"`
	CatalogURL  string        `yaml:"catalog_url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`
}

type DiscosConfig struct {
	BaseURL  string `yaml:"base_url"`
	Token    string `yaml:"token"`
	PageSize int    `yaml:"page_size"`
}

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	BodyLimit int64         `yaml:"body_limit"`
}

type CacheConfig struct {
	// MaxFiles kept per payload prefix; 0 keeps everything.
	MaxFiles int `yaml:"max_files"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DataDir: "downloaded_data",
		Sources: []string{core.SourceSpaceTrack, core.SourceDiscos},
		SpaceTrack: SpaceTrackConfig{
			AuthURL:     spacetrack.DefaultAuthURL,
			CatalogURL:  spacetrack.DefaultCatalogURL,
			CacheMaxAge: 2 * time.Hour,
		},
		Discos: DiscosConfig{
			BaseURL:  discos.DefaultBaseURL,
			PageSize: core.MaxPageSize,
		},
		HTTP: HTTPConfig{
			Timeout:   5 * time.Minute,
			BodyLimit: 512 << 20,
		},
		Metrics: MetricsConfig{Job: "spade"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load builds a Config from defaults, then path (skipped when empty), then
// envFile (skipped when empty or absent), then the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Tracing = observability.ApplyTracingEnv(cfg.Tracing)
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(&c.SpaceTrack.Username, "SPACE_TRACKER_USERNAME")
	setString(&c.SpaceTrack.Password, "SPACE_TRACKER_PASSWORD")
	setString(&c.Discos.Token, "DISCOS_TOKEN")
	setString(&c.DataDir, "SPADE_DATA_DIR")
	setString(&c.Metrics.PushgatewayURL, "SPADE_PUSHGATEWAY_URL")

	if v := os.Getenv("SPADE_SOURCES"); v != "" {
		c.Sources = SplitSources(v)
	}
	if v := os.Getenv("SPADE_CACHE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPADE_CACHE_MAX_AGE: %w", err)
		}
		c.SpaceTrack.CacheMaxAge = d
	}
	if v := os.Getenv("SPADE_DISCOS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPADE_DISCOS_PAGE_SIZE: %w", err)
		}
		c.Discos.PageSize = n
	}
	return nil
}

// SplitSources parses a comma separated source list.
func SplitSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks settings for the enabled sources.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("no sources enabled"))
	}
	for _, s := range c.Sources {
		switch s {
		case core.SourceSpaceTrack:
			if c.SpaceTrack.Username == "" || c.SpaceTrack.Password == "" {
				errs = append(errs, errors.New("space-track requires SPACE_TRACKER_USERNAME and SPACE_TRACKER_PASSWORD"))
			}
			if c.SpaceTrack.CacheMaxAge <= 0 {
				errs = append(errs, errors.New("space_track.cache_max_age must be positive"))
			}
		case core.SourceDiscos:
			if c.Discos.Token == "" {
				errs = append(errs, errors.New("discos requires DISCOS_TOKEN"))
			}
			if c.Discos.PageSize < core.MinPageSize || c.Discos.PageSize > core.MaxPageSize {
				errs = append(errs, fmt.Errorf("discos.page_size must be between %d and %d, got %d",
					core.MinPageSize, core.MaxPageSize, c.Discos.PageSize))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown source %q", s))
		}
	}
	return errors.Join(errs...)
}
