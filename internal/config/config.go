// Package config loads refgraph settings.
//
// Values come from, in increasing precedence: built-in defaults, the TOML
// file at [Path], a .env file, process environment variables, and finally
// command-line flags applied by the caller.
package config

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/filter"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

const appName = "refgraph"

// Environment variables that override file settings.
const (
	EnvBaseURL   = "REFGRAPH_BASE_URL"
	EnvTimeout   = "REFGRAPH_TIMEOUT"
	EnvCache     = "REFGRAPH_CACHE"
	EnvRedisAddr = "REFGRAPH_REDIS_ADDR"
	EnvListen    = "REFGRAPH_LISTEN"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all refgraph settings.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Cache    CacheConfig    `toml:"cache"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
}

// BackendConfig configures the investigation backend client.
type BackendConfig struct {
	BaseURL    string                 `toml:"base_url" validate:"required"`
	Timeout    time.Duration          `toml:"timeout" validate:"gt=0"`
	Retries    int                    `toml:"retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration          `toml:"retry_delay" validate:"gte=0"`
	Breaker    backend.BreakerOptions `toml:"breaker"`
}

// CacheConfig selects and configures the cache.
type CacheConfig struct {
	Backend       string        `toml:"backend" validate:"oneof=file redis none"`
	Dir           string        `toml:"dir,omitempty"`
	RedisAddr     string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `toml:"redis_password,omitempty"`
	RedisDB       int           `toml:"redis_db" validate:"gte=0,lte=15"`
	Prefix        string        `toml:"prefix,omitempty"`     // key prefix for shared caches
	TTL           time.Duration `toml:"ttl" validate:"gte=0"` // backend response TTL
}

// PipelineConfig holds the default pipeline options.
type PipelineConfig struct {
	ScoreKeys []string `toml:"score_keys"`
	Layout    string   `toml:"layout"`
	Metric    string   `toml:"metric"`
	Prune     bool     `toml:"prune"`
	Seed      uint64   `toml:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen       string        `toml:"listen" validate:"required"`
	ReadTimeout  time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `toml:"write_timeout" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:    backend.DefaultBaseURL,
			Timeout:    backend.DefaultTimeout,
			Retries:    0,
			RetryDelay: backend.DefaultRetryDelay,
			Breaker:    backend.DefaultBreakerOptions(),
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			TTL:       cache.TTLHTTP,
		},
		Pipeline: PipelineConfig{
			ScoreKeys: append([]string(nil), filter.DefaultScoreKeys...),
			Layout:    string(pipeline.DefaultLayout),
			Metric:    string(pipeline.DefaultMetric),
			Seed:      pipeline.DefaultSeed,
		},
		Server: ServerConfig{
			Listen:       ":8090",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the config directory ($XDG_CONFIG_HOME/refgraph).
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the file cache directory ($XDG_CACHE_HOME/refgraph).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path (the default path if empty), then
// applies the .env file in the working directory and the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	case !stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", path)
}

// ApplyEnv overrides settings from REFGRAPH_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s=%q", EnvTimeout, v)
		}
		c.Backend.Timeout = d
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
	return nil
}

// parseDuration accepts Go durations ("15s") and bare seconds ("15").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if err := validate().Struct(c); err != nil {
		return fieldError(err)
	}
	if err := errors.ValidateURL(c.Backend.BaseURL); err != nil {
		return err
	}
	_, err := c.PipelineOptions()
	return err
}

// fieldError reports the first failed rule with its TOML path.
func fieldError(err error) error {
	var fields validator.ValidationErrors
	if !stderrors.As(err, &fields) || len(fields) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config")
	}
	f := fields[0]
	_, path, _ := strings.Cut(f.Namespace(), ".")
	rule := f.Tag()
	if f.Param() != "" {
		rule += "=" + f.Param()
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid %s: %v (rule %s)", path, f.Value(), rule)
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return cfg.Encode(f)
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// =============================================================================
// Factories
// =============================================================================

// PipelineOptions converts the pipeline section into validated options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	kind, err := layout.ParseKind(c.Pipeline.Layout)
	if err != nil {
		return pipeline.Options{}, err
	}
	metric, err := degree.ParsePolicy(c.Pipeline.Metric)
	if err != nil {
		return pipeline.Options{}, err
	}
	keys := normalizeKeys(c.Pipeline.ScoreKeys)
	opts := pipeline.Options{
		ScoreKeys: keys,
		Prune:     c.Pipeline.Prune,
		Layout:    kind,
		Metric:    metric,
		Seed:      c.Pipeline.Seed,
	}.WithDefaults()
	return opts, opts.Validate()
}

func normalizeKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Keyer returns the cache keyer, scoped by the configured prefix.
func (c *Config) Keyer() cache.Keyer {
	k := cache.NewDefaultKeyer()
	if c.Cache.Prefix != "" {
		return cache.NewScopedKeyer(k, c.Cache.Prefix)
	}
	return k
}

// NewCache opens the configured cache. A file cache that cannot be
// created degrades to no caching.
func (c *Config) NewCache(ctx context.Context, logger *log.Logger) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
	}

	dir := c.Cache.Dir
	if dir == "" {
		d, err := CacheDir()
		if err != nil {
			logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// BackendOptions builds client options sharing cache c.
func (c *Config) BackendOptions(ch cache.Cache, logger *log.Logger) backend.Options {
	return backend.Options{
		BaseURL:    c.Backend.BaseURL,
		Timeout:    c.Backend.Timeout,
		Retries:    c.Backend.Retries,
		RetryDelay: c.Backend.RetryDelay,
		Breaker:    c.Backend.Breaker,
		Cache:      ch,
		Keyer:      c.Keyer(),
		CacheTTL:   c.Cache.TTL,
		Logger:     logger,
	}
}
