// Package config loads nextscope settings from .nextscope.yaml, NEXTSCOPE_*
// environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gnana997/nextscope/pkg/cache"
	"github.com/gnana997/nextscope/pkg/devserver"
	"github.com/gnana997/nextscope/pkg/scanner"
	"github.com/gnana997/nextscope/pkg/util"
	"github.com/gnana997/nextscope/pkg/watcher"
)

const (
	// DefaultConfigFile is the configuration file name without extension.
	DefaultConfigFile = ".nextscope"
	// DefaultConfigType is the configuration file type.
	DefaultConfigType = "yaml"
	// EnvFile is loaded into the process environment before the config is
	// read. It is separate from the project's own .env files.
	EnvFile = ".nextscope.env"
	// EnvPrefix prefixes environment overrides, e.g. NEXTSCOPE_CACHE_TTL.
	EnvPrefix = "NEXTSCOPE"
)

// Config holds all nextscope settings.
type Config struct {
	// Root is the Next.js project directory.
	Root string `mapstructure:"root" yaml:"root"`
	// Workers bounds per-file analysis concurrency. 0 picks from the CPU count.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Exclude patterns are skipped by every discovery, on top of the built-in ignores.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`

	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
	Dev   DevConfig   `mapstructure:"dev" yaml:"dev"`
	MCP   MCPConfig   `mapstructure:"mcp" yaml:"mcp"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
}

// CacheConfig configures the analysis cache.
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore"`
}

// DevConfig configures the WebSocket dev server.
type DevConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// LogFile receives one JSONL line per tool call. Empty disables it.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// LogConfig configures diagnostic logging on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration. An empty configFile looks for .nextscope.yaml in
// the current directory; a missing default file is not an error.
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith reads configuration into v, so callers can bind flags first.
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("error loading %s: %w", EnvFile, err)
	}

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("workers", 0)
	v.SetDefault("exclude", []string{})

	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("watch.debounce", 200*time.Millisecond)
	v.SetDefault("watch.ignore", []string{})

	v.SetDefault("dev.addr", "127.0.0.1:3210")
	v.SetDefault("dev.allowed_origins", []string{})

	v.SetDefault("mcp.log_file", filepath.Join(".nextscope", "mcp-calls.jsonl"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0, got %s", c.Cache.TTL)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be > 0, got %s", c.Watch.Debounce)
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern: %s", p)
		}
	}
	for _, p := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid watch.ignore pattern: %s", p)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Logger builds the diagnostic logger. Logs always go to stderr.
func (c *Config) Logger() *slog.Logger {
	lc := util.DefaultLoggerConfig()
	lc.Level = util.ParseLogLevel(c.Log.Level)
	lc.Format = util.ParseLogFormat(c.Log.Format)
	return util.NewLogger(lc)
}

// ScannerOptions returns the scanner settings.
func (c *Config) ScannerOptions(logger *slog.Logger) scanner.Options {
	return scanner.Options{
		Workers: c.Workers,
		Cache: cache.Config{
			MaxEntries: c.Cache.MaxEntries,
			TTL:        c.Cache.TTL,
			Logger:     logger,
		},
		Exclude: c.Exclude,
		Logger:  logger,
	}
}

// WatcherOptions returns the watcher settings. Discovery excludes are
// ignored by the watcher too.
func (c *Config) WatcherOptions(logger *slog.Logger, onChange func([]string)) watcher.Options {
	ignore := make([]string, 0, len(c.Exclude)+len(c.Watch.Ignore))
	ignore = append(ignore, c.Exclude...)
	ignore = append(ignore, c.Watch.Ignore...)
	return watcher.Options{
		Debounce: c.Watch.Debounce,
		Ignore:   ignore,
		OnChange: onChange,
		Logger:   logger,
	}
}

// DevServerOptions returns the dev server settings.
func (c *Config) DevServerOptions(logger *slog.Logger) devserver.Options {
	return devserver.Options{
		AllowedOrigins: c.Dev.AllowedOrigins,
		Logger:         logger,
	}
}
