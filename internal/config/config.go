// Package config loads Gramps MCP server settings from an optional YAML or
// TOML file and the GRAMPS_* / MCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Transport names accepted by the server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied when neither file nor environment sets a value.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultCacheTTL    = 2 * time.Minute
	DefaultCacheSize   = 2000
	DefaultAddr        = "0.0.0.0:8000"
	DefaultRateLimit   = 120 // requests per minute per client IP
	DefaultMaxBodySize = 10 << 20
)

// Config holds everything the server needs to reach a Gramps Web tree.
type Config struct {
	APIURL   string `yaml:"api_url" toml:"api_url"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	TreeID   string `yaml:"tree_id" toml:"tree_id"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	MaxRetries int           `yaml:"max_retries" toml:"max_retries"`
	CacheTTL   time.Duration `yaml:"-" toml:"-"`
	CacheSize  int           `yaml:"cache_size" toml:"cache_size"`

	Transport   string `yaml:"transport" toml:"transport"`
	Addr        string `yaml:"addr" toml:"addr"`
	RateLimit   int    `yaml:"rate_limit" toml:"rate_limit"`
	MaxBodySize int64  `yaml:"max_body_size" toml:"max_body_size"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// Raw duration strings from the file, e.g. "45s".
	TimeoutRaw  string `yaml:"timeout" toml:"timeout"`
	CacheTTLRaw string `yaml:"cache_ttl" toml:"cache_ttl"`
}

// Load reads the optional file at path (empty for none), applies the process
// environment on top and validates the result.
func Load(path string) (*Config, error) {
	return LoadFrom(afero.NewOsFs(), path, os.Getenv)
}

// LoadFrom is Load with an injectable filesystem and environment.
func LoadFrom(fs afero.Fs, path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := decodeFile(fs, path, getenv, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func decodeFile(fs afero.Fs, path string, getenv func(string) string, cfg *Config) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// ${VAR} references let secrets stay in the environment.
	expanded := envRef.ReplaceAllStringFunc(string(data), func(m string) string {
		return getenv(envRef.FindStringSubmatch(m)[1])
	})

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), cfg)
	case ".toml":
		_, err = toml.Decode(expanded, cfg)
	default:
		return fmt.Errorf("unsupported config file type %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.TimeoutRaw != "" {
		if cfg.Timeout, err = cast.ToDurationE(cfg.TimeoutRaw); err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.TimeoutRaw, err)
		}
	}
	if cfg.CacheTTLRaw != "" {
		if cfg.CacheTTL, err = cast.ToDurationE(cfg.CacheTTLRaw); err != nil {
			return fmt.Errorf("parsing cache_ttl %q: %w", cfg.CacheTTLRaw, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.APIURL, "GRAMPS_API_URL")
	setString(&cfg.Username, "GRAMPS_USERNAME")
	setString(&cfg.Password, "GRAMPS_PASSWORD")
	setString(&cfg.TreeID, "GRAMPS_TREE_ID")
	setString(&cfg.Transport, "MCP_TRANSPORT")
	setString(&cfg.Addr, "MCP_HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	if v := getenv("GRAMPS_TIMEOUT"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("parsing GRAMPS_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := getenv("GRAMPS_CACHE_TTL"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("parsing GRAMPS_CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = d
	}
	if v := getenv("GRAMPS_MAX_RETRIES"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			return fmt.Errorf("parsing GRAMPS_MAX_RETRIES %q: must be a non-negative integer", v)
		}
		cfg.MaxRetries = n
	}
	if v := getenv("GRAMPS_CACHE_SIZE"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("parsing GRAMPS_CACHE_SIZE %q: %w", v, err)
		}
		cfg.CacheSize = n
	}
	if v := getenv("MCP_RATE_LIMIT"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("parsing MCP_RATE_LIMIT %q: %w", v, err)
		}
		cfg.RateLimit = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.APIURL == "" {
		missing = append(missing, "GRAMPS_API_URL")
	}
	if c.Username == "" {
		missing = append(missing, "GRAMPS_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "GRAMPS_PASSWORD")
	}
	if c.TreeID == "" {
		missing = append(missing, "GRAMPS_TREE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}
	return nil
}

// APIBase returns the API root with exactly one trailing "/api".
func (c *Config) APIBase() string {
	base := strings.TrimRight(c.APIURL, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}
